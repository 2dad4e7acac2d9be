package loadingdict

import "sync"

// cell is the "deferred cell" of §4.3: it may be constructed and stored in
// the dictionary's map without starting the loader, and the first reader
// to call start triggers exactly one loader invocation regardless of how
// many readers observed the cell concurrently. This two-layer indirection
// is required because stripedmap.LoadOrStore (like most concurrent map
// insert-if-absent primitives) does not guarantee its value argument was
// constructed by only one caller — several callers may race to build a
// candidate cell, but only one candidate wins the map insert. Gating the
// loader behind sync.Once on the winning cell, rather than in the map's
// factory, means the losing candidates are simply discarded unused.
type cell[V any] struct {
	once sync.Once
	done chan struct{}

	val V
	err error
}

func newCell[V any]() *cell[V] {
	return &cell[V]{done: make(chan struct{})}
}

// completedCell returns a cell pre-populated with v, used for Options.Initial
// preloads. The loader is never invoked for a preloaded cell: once is
// pre-fired and done is already closed.
func completedCell[V any](v V) *cell[V] {
	c := &cell[V]{done: make(chan struct{}), val: v}
	c.once.Do(func() {})
	close(c.done)
	return c
}

// start invokes load exactly once for this cell's lifetime, regardless of
// how many goroutines call start concurrently. load runs on its own
// goroutine so callers can wait on c.done with their own cancellation
// signal without blocking the loader itself.
func (c *cell[V]) start(load func() (V, error)) {
	c.once.Do(func() {
		go func() {
			c.val, c.err = load()
			close(c.done)
		}()
	})
}
