package loadingdict

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Loader is the deferred loader contract (§4.4): it returns the value for
// key, observing ctx cooperatively. The dictionary runs it on its own
// goroutine, derived from context.Background() and bounded by TaskTimeout —
// never from a caller's context — so one caller giving up does not cut
// short a load that other callers may still be waiting on.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

const defaultCapacity = 50_000

// Options configures a Dict. Loader is required; everything else has a
// safe default applied in New.
type Options[K comparable, V any] struct {
	// Loader fetches a value on first access to a missing key. Required.
	Loader Loader[K, V]

	// Initial preloads the dictionary with already-known values. Preloaded
	// entries never invoke Loader.
	Initial map[K]V

	// ConcurrencyLevel is an estimate of the expected number of concurrent
	// accessors; it drives the number of internal map stripes. Zero (the
	// default) means "unspecified" and resolves to the logical CPU count;
	// a negative value is a construction-time error (New panics).
	ConcurrencyLevel int

	// Capacity is an estimate of the total number of distinct keys; it
	// drives each stripe's initial map size. <= 0 => 50_000.
	Capacity int

	// TaskTimeout bounds a single cell's loader invocation. <= 0 => 30s.
	TaskTimeout time.Duration

	// Logger receives diagnostic records (the dictionary's only external
	// side channel). nil => zap.NewNop().
	Logger *zap.Logger
}

func (o *Options[K, V]) withDefaults() {
	if o.ConcurrencyLevel <= 0 {
		o.ConcurrencyLevel = runtime.GOMAXPROCS(0)
	}
	if o.Capacity <= 0 {
		o.Capacity = defaultCapacity
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
