// Package loadingdict implements a lazy loading dictionary: a read-mostly
// map that materializes values on first access via a caller-supplied
// loader, guaranteeing single-flight loading (concurrent requests for a
// missing key share one cell, and each cell invokes the loader at most
// once) with cooperative cancellation and a bounded internal task lifetime. See Dict for the full contract.
package loadingdict

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/latchcache/latchcache/internal/stripedmap"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Dict is a lazy loading dictionary from K to V. All methods are safe for
// concurrent use by multiple goroutines.
type Dict[K comparable, V any] struct {
	cells   *stripedmap.Map[K, *cell[V]]
	loader  Loader[K, V]
	timeout time.Duration
	log     *zap.Logger
}

// New constructs a Dict. Panics if opt.Loader is nil or opt.ConcurrencyLevel
// is negative — both are construction-time programming errors.
func New[K comparable, V any](opt Options[K, V]) *Dict[K, V] {
	if opt.Loader == nil {
		panic(&InvariantViolation{Reason: "Loader must not be nil"})
	}
	if opt.ConcurrencyLevel < 0 {
		panic(ErrInvalidArgument)
	}
	opt.withDefaults()

	perStripe := opt.Capacity / opt.ConcurrencyLevel
	if perStripe < 1 {
		perStripe = opt.Capacity
	}

	d := &Dict[K, V]{
		cells:   stripedmap.New[K, *cell[V]](opt.ConcurrencyLevel, perStripe),
		loader:  opt.Loader,
		timeout: opt.TaskTimeout,
		log:     opt.Logger,
	}
	for k, v := range opt.Initial {
		d.cells.Store(k, completedCell(v))
	}
	return d
}

// Get returns the value for key, loading it if this is the first access.
// Concurrent Get/TryGet/GetAsync calls for the same key share one loader
// invocation. ctx governs only how long this call is willing to wait: if
// ctx is cancelled before the value is produced, Get returns a
// *CancelledError and the underlying cell is left intact for later callers.
//
// If the loader faults, Get returns a *KeyNotFoundError wrapping the fault
// (unwrapped one level if the fault was an aggregate with a single inner
// error) and the cell is removed so the next access re-attempts the load.
func (d *Dict[K, V]) Get(ctx context.Context, key K) (V, error) {
	if isNilKey(key) {
		var zero V
		return zero, ErrInvalidArgument
	}
	c := d.cellFor(key)
	return d.wait(ctx, key, c)
}

// TryGet behaves like Get except a loader fault is reported as
// (zero-value, false) rather than an error. Caller cancellation still
// surfaces as a *CancelledError, and a nil key as ErrInvalidArgument.
func (d *Dict[K, V]) TryGet(ctx context.Context, key K) (V, bool, error) {
	v, err := d.Get(ctx, key)
	if err == nil {
		return v, true, nil
	}
	var zero V
	var notFound *KeyNotFoundError[K]
	if errors.As(err, &notFound) {
		return zero, false, nil
	}
	return zero, false, err
}

// Future is a non-blocking handle to a deferred cell, obtained from
// GetAsync. Calling Wait on multiple Futures for the same key observes the
// same single-flight result.
type Future[K comparable, V any] struct {
	d   *Dict[K, V]
	key K
	c   *cell[V]
}

// Wait blocks until the value is produced or ctx is cancelled, whichever
// happens first. It has the same error contract as Dict.Get.
func (f Future[K, V]) Wait(ctx context.Context) (V, error) {
	return f.d.wait(ctx, f.key, f.c)
}

// GetAsync returns immediately with a handle that starts (or joins) the
// load for key without blocking the caller.
func (d *Dict[K, V]) GetAsync(key K) (Future[K, V], error) {
	if isNilKey(key) {
		return Future[K, V]{}, ErrInvalidArgument
	}
	return Future[K, V]{d: d, key: key, c: d.cellFor(key)}, nil
}

// Contains reports whether a deferred cell currently exists for key,
// pending or completed; it does not distinguish the two.
func (d *Dict[K, V]) Contains(key K) bool {
	_, ok := d.cells.Load(key)
	return ok
}

// Keys returns a best-effort snapshot of currently-stored keys, pending
// cells included.
func (d *Dict[K, V]) Keys() []K {
	return d.cells.Keys()
}

// Remove deletes the cell for key unconditionally, if present. A later
// access re-triggers the loader.
func (d *Dict[K, V]) Remove(key K) bool {
	_, ok := d.cells.Load(key)
	if !ok {
		return false
	}
	d.cells.Delete(key)
	return true
}

// cellFor returns the cell for key, constructing and racing to store a
// fresh one if absent, and starts its loader (a no-op on a cell that has
// already started, by construction of cell.start). If the loader has not
// returned within the task timeout, the cell completes with the timeout
// error even when the loader ignores its ctx; the loader's goroutine is
// not stopped and its eventual result is discarded.
func (d *Dict[K, V]) cellFor(key K) *cell[V] {
	candidate := newCell[V]()
	actual, _ := d.cells.LoadOrStore(key, candidate)
	actual.start(func() (V, error) {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		type result struct {
			val V
			err error
		}
		res := make(chan result, 1)
		go func() {
			v, err := d.loader(ctx, key)
			res <- result{v, err}
		}()
		select {
		case r := <-res:
			return r.val, r.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	})
	return actual
}

// wait blocks on c.done or ctx.Done(), whichever fires first, then applies
// the failure/removal policy described in §4.3.
func (d *Dict[K, V]) wait(ctx context.Context, key K, c *cell[V]) (V, error) {
	select {
	case <-c.done:
		if c.err != nil {
			d.onFault(key, c)
			var zero V
			return zero, &KeyNotFoundError[K]{Key: key, Cause: unwrapCause(c.err)}
		}
		return c.val, nil
	case <-ctx.Done():
		var zero V
		return zero, &CancelledError{Cause: ctx.Err()}
	}
}

// onFault removes the faulted cell so the next caller re-attempts the
// load. If the cell was already gone (e.g. raced with an explicit Remove),
// this logs an informational record — the dictionary's only external side
// channel.
func (d *Dict[K, V]) onFault(key K, c *cell[V]) {
	if !d.cells.CompareAndDelete(key, c, func(a, b *cell[V]) bool { return a == b }) {
		d.log.Info("loadingdict: key to remove was already absent", zap.Any("key", key))
	}
}

// unwrapCause implements the "aggregate with a single inner error" unwrap
// rule from §7: go.uber.org/multierr's Errors() already collapses a
// single-inner aggregate to that inner and passes non-aggregate errors
// through untouched, which is exactly this rule.
func unwrapCause(err error) error {
	errs := multierr.Errors(err)
	if len(errs) == 1 {
		return errs[0]
	}
	return err
}

// isNilKey reports whether k holds a nil pointer/interface/map/slice/chan/
// func value — the only way a comparable K can be "a null reference" in
// the sense §4.3 describes for languages that permit it. Non-nilable kinds
// (strings, integers, structs of comparable fields) are never nil.
func isNilKey[K comparable](k K) bool {
	v := reflect.ValueOf(k)
	switch v.Kind() {
	case reflect.Invalid:
		// A nil interface key: reflect.ValueOf(nil) has no kind at all.
		return true
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
