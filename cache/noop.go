package cache

import "context"

// Noop is a Cache implementation that stores nothing: Get always reports
// absent, Add/Put/Remove are no-ops (Add/Remove report their trivial
// outcome), and Len is always zero. It carries no eviction policy, no
// counters beyond satisfying the interface shape, and no loader — it
// exists so callers can wire the Cache contract into a code path that
// should behave as "caching disabled" without branching on a feature flag
// at every call site, and to give the interface a second, structurally
// distinct implementation to type-check against in tests.
type Noop[K comparable, V any] struct{}

// NewNoop constructs a Cache that never retains anything it is given.
func NewNoop[K comparable, V any]() Cache[K, V] {
	return &Noop[K, V]{}
}

func (n *Noop[K, V]) Add(K, V) bool { return true }

func (n *Noop[K, V]) Put(K, V) {}

func (n *Noop[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}

func (n *Noop[K, V]) Remove(K) bool { return false }

func (n *Noop[K, V]) Len() int { return 0 }

func (n *Noop[K, V]) Reset() {}

func (n *Noop[K, V]) Close() error { return nil }

// GetOrLoad carries no loader (§4.7); it always degrades to ErrNoLoader,
// the same boundary behavior any cache variant exhibits with a nil Loader.
func (n *Noop[K, V]) GetOrLoad(context.Context, K) (V, error) {
	var zero V
	return zero, ErrNoLoader
}

func (n *Noop[K, V]) Warm(context.Context, []K) error { return ErrNoLoader }

func (n *Noop[K, V]) Requests() int64    { return 0 }
func (n *Noop[K, V]) Misses() int64      { return 0 }
func (n *Noop[K, V]) MissRatio() float64 { return 0 }

var _ Cache[string, int] = (*Noop[string, int])(nil)
