// Package cache implements the sharded, concurrency-optimized LRU (and
// optionally TLRU) cache described in the package doc. See doc.go for the
// full design rationale.
package cache

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/latchcache/latchcache/internal/util"
)

// lru is a sharded in-memory KV store with LRU/TLRU eviction. All methods
// are safe for concurrent use by multiple goroutines.
//
// Indexing is split in two, deliberately: idx is the single process-level
// concurrent hash map that answers "does key K exist and what entry is it",
// while shards hold only recency-ordered lists with no lookup capability of
// their own. A put assigns its entry to a uniformly random shard rather
// than one derived from the key's hash, so shard sizes stay balanced in
// expectation without a second hash computation and without the scheme
// being gameable by adversarial keys (§4.1 Shard assignment).
type lru[K comparable, V any] struct {
	capacity int64

	idx     sync.Map // K -> *entry[K, V]
	idxSize atomic.Int64

	shards []*shard[K, V]

	opt    Options[K, V]
	closed atomic.Bool

	_        util.CacheLinePad
	requests util.PaddedAtomicInt64
	misses   util.PaddedAtomicInt64

	// flight coalesces concurrent GetOrLoad misses for the same key so the
	// configured Loader runs at most once per miss (§4.5). Unlike a
	// general-purpose singleflight package, this only ever calls l.opt.Loader
	// against this cache, so there's no reason to parameterize it over an
	// arbitrary fn — flightMu/flight is exactly the coalescing GetOrLoad needs.
	flightMu sync.Mutex
	flight   map[K]*flightCall[V]
}

// flightCall is the shared result slot for one in-flight Loader invocation.
// Publishing (val, err) happens-before close(done), so followers that wake
// from <-done observe the final values without further synchronization.
type flightCall[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// New constructs a cache with the provided Options.
//
// Defaults:
//   - Shards <= 0  -> util.ReasonableShardCount() (logical CPU count, clamped)
//   - nil Metrics  -> NoopMetrics
//
// New panics if Capacity is not positive — a non-positive capacity cannot
// bound anything and indicates a construction-time programming error rather
// than a recoverable runtime condition.
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity <= 0 {
		panic(&InvariantViolation{Reason: "Capacity must be > 0"})
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	}

	shards := make([]*shard[K, V], sh)
	for i := range shards {
		shards[i] = &shard[K, V]{}
	}

	return &lru[K, V]{
		capacity: int64(opt.Capacity),
		shards:   shards,
		opt:      opt,
	}
}

// ---- Cache[K,V] implementation ----

// Add inserts k→v only if absent. Returns false if the key already exists.
func (l *lru[K, V]) Add(k K, v V) bool {
	if l.closed.Load() {
		return false
	}
	cand := l.newEntry(k, v)
	actual, loaded := l.idx.LoadOrStore(k, cand)
	if loaded {
		_ = actual
		return false
	}
	l.linkNew(cand)
	return true
}

// Put inserts or updates k→v per §4.1 Put path.
func (l *lru[K, V]) Put(k K, v V) {
	if l.closed.Load() {
		return
	}
	cand := l.newEntry(k, v)
	actual, loaded := l.idx.LoadOrStore(k, cand)
	if !loaded {
		l.linkNew(cand)
		return
	}

	old := actual.(*entry[K, V])
	if l.opt.UpdateExisting {
		l.replace(old, cand)
	} else {
		l.promote(old)
	}
}

// Get returns the value for k and a presence flag, promoting on hit.
func (l *lru[K, V]) Get(k K) (V, bool) {
	var zero V
	if l.closed.Load() {
		return zero, false
	}
	l.requests.Add(1)

	v, ok := l.idx.Load(k)
	if !ok {
		l.misses.Add(1)
		l.opt.Metrics.Miss()
		return zero, false
	}
	e := v.(*entry[K, V])

	if e.exp != 0 && l.now() > e.exp {
		l.expire(e)
		l.misses.Add(1)
		l.opt.Metrics.Miss()
		return zero, false
	}

	// Pre-check validity before taking the shard lock (§4.1 double-checked
	// manipulation); moveToFront re-checks it under the lock and also skips
	// an entry that is already head.
	if e.valid.Load() {
		s := e.shard
		s.mu.Lock()
		s.moveToFront(e)
		s.mu.Unlock()
	}

	l.opt.Metrics.Hit()
	return e.val, true
}

// Remove deletes k if present and returns true on success.
func (l *lru[K, V]) Remove(k K) bool {
	if l.closed.Load() {
		return false
	}
	v, ok := l.idx.Load(k)
	if !ok {
		return false
	}
	e := v.(*entry[K, V])
	if !l.idx.CompareAndDelete(k, e) {
		// Someone else already removed or replaced this exact entry.
		return false
	}
	s := e.shard
	s.mu.Lock()
	s.remove(e)
	s.mu.Unlock()
	l.idxSize.Add(-1)
	l.opt.Metrics.Size(int(l.idxSize.Load()))
	return true
}

// Len returns the total number of resident entries across all shards.
func (l *lru[K, V]) Len() int {
	return int(l.idxSize.Load())
}

// Reset clears all shards and counters. Per the teardown design note, every
// shard is fully emptied under its own lock before the index and counters
// are cleared; no finalizer-style cleanup is relied upon.
func (l *lru[K, V]) Reset() {
	for _, s := range l.shards {
		s.mu.Lock()
		s.head, s.tail, s.len = nil, nil, 0
		s.mu.Unlock()
	}
	l.idx.Range(func(k, _ any) bool {
		l.idx.Delete(k)
		return true
	})
	l.idxSize.Store(0)
	l.requests.Store(0)
	l.misses.Store(0)
}

// Close marks the cache closed. Afterwards Add/Put/Get/Remove become
// no-ops/misses; GetOrLoad and Warm still invoke the Loader but store
// nothing. There are no background workers to stop; Close always returns
// nil.
func (l *lru[K, V]) Close() error {
	l.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key so the Loader runs at most
// once per miss. If no Loader is configured, returns ErrNoLoader.
func (l *lru[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := l.Get(k); ok {
		return v, nil
	}
	if l.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	l.flightMu.Lock()
	if l.flight == nil {
		l.flight = make(map[K]*flightCall[V])
	}
	if fc, ok := l.flight[k]; ok {
		// A load for k is already in flight; wait for it (respecting ctx).
		l.flightMu.Unlock()
		select {
		case <-fc.done:
			return fc.val, fc.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// We are the leader for k.
	fc := &flightCall[V]{done: make(chan struct{})}
	l.flight[k] = fc
	l.flightMu.Unlock()

	// Double-check after becoming leader: a follower of an earlier flight
	// for this key may have already installed a value between our initial
	// Get and winning the leader slot.
	if v, ok := l.Get(k); ok {
		fc.val, fc.err = v, nil
	} else {
		v, loadErr := l.opt.Loader(ctx, k)
		if loadErr == nil {
			l.Put(k, v)
		}
		fc.val, fc.err = v, loadErr
	}
	close(fc.done)

	l.flightMu.Lock()
	delete(l.flight, k)
	l.flightMu.Unlock()

	return fc.val, fc.err
}

// Warm eagerly loads each of keys via Options.Loader and inserts it with
// Put, stopping at the first error. It does not coalesce with concurrent
// GetOrLoad callers beyond what the flight map already provides per key.
func (l *lru[K, V]) Warm(ctx context.Context, keys []K) error {
	if l.opt.Loader == nil {
		return ErrNoLoader
	}
	for _, k := range keys {
		if _, err := l.GetOrLoad(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (l *lru[K, V]) Requests() int64 { return l.requests.Load() }
func (l *lru[K, V]) Misses() int64   { return l.misses.Load() }

func (l *lru[K, V]) MissRatio() float64 {
	req := l.requests.Load()
	if req == 0 {
		return 0
	}
	return float64(l.misses.Load()) / float64(req)
}

// ---- internals ----

// newEntry constructs a candidate entry bound to a uniformly random shard,
// stamped with an absolute TLRU deadline if ItemLifetime is configured.
// The entry starts detached (valid=false) until linkNew or replace links
// it into its shard.
func (l *lru[K, V]) newEntry(k K, v V) *entry[K, V] {
	s := l.shards[rand.IntN(len(l.shards))]
	var exp int64
	if l.opt.ItemLifetime > 0 {
		exp = l.now() + int64(l.opt.ItemLifetime)
	}
	return &entry[K, V]{key: k, val: v, exp: exp, shard: s}
}

// linkNew links a freshly-won candidate at the head of its shard and
// enforces the capacity bound if the index grew past it.
func (l *lru[K, V]) linkNew(e *entry[K, V]) {
	s := e.shard
	s.mu.Lock()
	s.pushFront(e)
	s.mu.Unlock()

	size := l.idxSize.Add(1)
	l.opt.Metrics.Size(int(size))
	if size > l.capacity {
		l.trim(s)
	}
}

// trim evicts exactly one entry — the current tail — from s. This is the
// approximation sharding introduces: the globally least-recently-used entry
// is not necessarily the one removed, only the least-recently-used entry of
// the shard that happened to grow (§4.1 Eviction).
func (l *lru[K, V]) trim(s *shard[K, V]) {
	s.mu.Lock()
	victim := s.back()
	if victim == nil {
		s.mu.Unlock()
		return
	}
	s.remove(victim)
	s.mu.Unlock()

	if !l.idx.CompareAndDelete(victim.key, victim) {
		// The index no longer points at this exact entry (e.g. it was
		// concurrently replaced); nothing further to reconcile.
		return
	}
	l.idxSize.Add(-1)
	l.opt.Metrics.Evict(EvictLRU)
	if cb := l.opt.OnEvict; cb != nil {
		cb(victim.key, victim.val, EvictLRU)
	}
}

// expire removes e because its TLRU deadline has passed.
func (l *lru[K, V]) expire(e *entry[K, V]) {
	s := e.shard
	s.mu.Lock()
	s.remove(e)
	s.mu.Unlock()

	if !l.idx.CompareAndDelete(e.key, e) {
		return
	}
	l.idxSize.Add(-1)
	l.opt.Metrics.Evict(EvictTTL)
	if cb := l.opt.OnEvict; cb != nil {
		cb(e.key, e.val, EvictTTL)
	}
}

// replace installs cand in place of old, which must share old's key
// (§4.1 Replace invariants). cand is linked into whichever shard it was
// constructed for — replace does not preserve shard assignment.
func (l *lru[K, V]) replace(old, cand *entry[K, V]) {
	if old.key != cand.key {
		panic(&InvariantViolation{Reason: "replace attempted across distinct keys"})
	}

	ns := cand.shard
	ns.mu.Lock()
	ns.pushFront(cand)
	ns.mu.Unlock()

	l.idx.Store(old.key, cand)

	os := old.shard
	os.mu.Lock()
	os.remove(old)
	os.mu.Unlock()

	l.opt.Metrics.Evict(EvictReplace)
	if cb := l.opt.OnEvict; cb != nil {
		cb(old.key, old.val, EvictReplace)
	}
}

// promote moves an existing entry to MRU in its shard, discarding the
// candidate that lost the put race (update_existing=false).
func (l *lru[K, V]) promote(e *entry[K, V]) {
	if !e.valid.Load() {
		return
	}
	s := e.shard
	s.mu.Lock()
	s.moveToFront(e)
	s.mu.Unlock()
}

func (l *lru[K, V]) now() int64 {
	if l.opt.Clock != nil {
		return l.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}
