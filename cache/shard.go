package cache

import "sync"

// shard is one of the cache's independently-locked recency lists. Shards
// hold no index of their own — the cache's global hash index is the single
// source of truth for "does key K exist"; a shard only orders the entries
// that were randomly assigned to it, MRU at head, LRU at tail.
type shard[K comparable, V any] struct {
	mu   sync.Mutex
	head *entry[K, V] // MRU
	tail *entry[K, V] // LRU
	len  int
}

// pushFront links e at the head of the list. e must not already be linked.
// Caller holds s.mu.
func (s *shard[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
	e.valid.Store(true)
	s.len++
}

// moveToFront promotes e to MRU. No-op if e is already head or invalid.
// Caller holds s.mu.
func (s *shard[K, V]) moveToFront(e *entry[K, V]) {
	if !e.valid.Load() || e == s.head {
		return
	}
	s.unlink(e)
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

// unlink detaches e from the list without touching s.len or e.valid.
// Caller holds s.mu.
func (s *shard[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if s.head == e {
		s.head = e.next
	}
	if s.tail == e {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

// remove detaches e from the list and marks it invalid. Caller holds s.mu.
// Panics if e does not belong to this shard — a misaligned removal is a
// programming error (§4.1 Failure mode), never a condition to recover from.
func (s *shard[K, V]) remove(e *entry[K, V]) {
	if e.shard != s {
		panic(&InvariantViolation{Reason: "entry removed from a shard it does not belong to"})
	}
	if !e.valid.Load() {
		return
	}
	s.unlink(e)
	e.valid.Store(false)
	s.len--
}

// back returns the current LRU entry, or nil if the shard is empty.
// Caller holds s.mu.
func (s *shard[K, V]) back() *entry[K, V] { return s.tail }
