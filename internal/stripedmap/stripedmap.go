// Package stripedmap implements a concurrent map sharded ("striped") across
// a fixed number of RWMutex-guarded buckets, sized up front from caller-
// supplied hints. It exists because sync.Map ignores any size/concurrency
// hint a caller might supply, while the loading dictionary's construction
// options (concurrency_level, capacity) are meant to drive exactly that —
// the number of stripes and each stripe's initial map size.
package stripedmap

import (
	"hash/fnv"
	"sync"
)

// Map is a generic striped concurrent map from K to V.
type Map[K comparable, V any] struct {
	stripes []*stripe[K, V]
	mask    uint64
	hash    func(K) uint64
}

type stripe[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New constructs a Map with the given stripe count and per-stripe initial
// capacity. stripes is rounded up to the next power of two (0 or negative
// becomes 1) so stripe selection is a cheap mask instead of a modulo;
// capacity <= 0 falls back to an unsized map per stripe.
func New[K comparable, V any](stripes, capacity int) *Map[K, V] {
	n := nextPow2(stripes)
	ss := make([]*stripe[K, V], n)
	for i := range ss {
		if capacity > 0 {
			ss[i] = &stripe[K, V]{m: make(map[K]V, capacity)}
		} else {
			ss[i] = &stripe[K, V]{m: make(map[K]V)}
		}
	}
	return &Map[K, V]{
		stripes: ss,
		mask:    uint64(n - 1),
		hash:    hashFunc[K](),
	}
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (m *Map[K, V]) stripeFor(k K) *stripe[K, V] {
	return m.stripes[m.hash(k)&m.mask]
}

// Load returns the value stored for k, if any.
func (m *Map[K, V]) Load(k K) (V, bool) {
	s := m.stripeFor(k)
	s.mu.RLock()
	v, ok := s.m[k]
	s.mu.RUnlock()
	return v, ok
}

// LoadOrStore returns the existing value for k if present; otherwise it
// stores and returns v. The returned bool is true if v was loaded (not
// stored) — mirroring sync.Map's LoadOrStore contract.
func (m *Map[K, V]) LoadOrStore(k K, v V) (actual V, loaded bool) {
	s := m.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.m[k]; ok {
		return existing, true
	}
	s.m[k] = v
	return v, false
}

// Store unconditionally sets the value for k.
func (m *Map[K, V]) Store(k K, v V) {
	s := m.stripeFor(k)
	s.mu.Lock()
	s.m[k] = v
	s.mu.Unlock()
}

// Delete removes k unconditionally.
func (m *Map[K, V]) Delete(k K) {
	s := m.stripeFor(k)
	s.mu.Lock()
	delete(s.m, k)
	s.mu.Unlock()
}

// CompareAndDelete removes the entry for k if and only if its current value
// equals old, as judged by eq. Reports whether the delete happened. This is
// the stripedmap analogue of sync.Map's CompareAndDelete, parameterized on
// an explicit equality function because V is not constrained to comparable.
func (m *Map[K, V]) CompareAndDelete(k K, old V, eq func(a, b V) bool) bool {
	s := m.stripeFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[k]
	if !ok || !eq(cur, old) {
		return false
	}
	delete(s.m, k)
	return true
}

// Len returns the total number of entries across all stripes. It is a
// point-in-time estimate: stripes are not locked together, so concurrent
// writers may cause it to be stale by the time the caller observes it.
func (m *Map[K, V]) Len() int {
	total := 0
	for _, s := range m.stripes {
		s.mu.RLock()
		total += len(s.m)
		s.mu.RUnlock()
	}
	return total
}

// Keys returns a best-effort snapshot of all keys currently present.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, m.Len())
	for _, s := range m.stripes {
		s.mu.RLock()
		for k := range s.m {
			out = append(out, k)
		}
		s.mu.RUnlock()
	}
	return out
}

// Range calls fn for each key/value pair. If fn returns false, Range stops
// early. As with sync.Map, the set of entries visited is not a consistent
// snapshot under concurrent modification.
func (m *Map[K, V]) Range(fn func(k K, v V) bool) {
	for _, s := range m.stripes {
		s.mu.RLock()
		for k, v := range s.m {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// hashFunc returns a hasher for K, dispatching on the key's dynamic type via
// a type switch on an interface value. Only string and the integer types
// listed in writeAny are handled directly (named types built on them are
// not); any other comparable type falls back to hashing its fmt
// representation, which is correct but allocates.
func hashFunc[K comparable]() func(K) uint64 {
	return func(k K) uint64 {
		h := fnv.New64a()
		writeAny(h, k)
		return h.Sum64()
	}
}
