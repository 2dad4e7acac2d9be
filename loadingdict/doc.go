// Package loadingdict provides a lazy loading dictionary: a read-mostly
// concurrent map from keys to values that materializes each value on first
// access via a caller-supplied loader.
//
// Guarantees
//
//   - Single-flight loading: each stored cell invokes the loader at most
//     once, and concurrent Get/TryGet/GetAsync calls for a missing key
//     share that cell and observe the same eventual result. A new cell (and
//     so a new loader invocation) is created only after the previous one was
//     removed by a fault or by Remove.
//   - Two independent cancellation scopes: a caller's context bounds only
//     how long that caller is willing to wait, never the loader itself.
//     Each cell's loader runs under its own internal timeout (default 30s)
//     derived from context.Background(), so one caller giving up does not
//     cut short a load other callers are still waiting on. A cell whose
//     loader has not returned within that timeout is treated as faulted,
//     even if the loader ignores cancellation; such a loader's goroutine
//     keeps running until the loader itself returns.
//   - A faulted loader's cell is discarded so the next access re-attempts;
//     a cancelled caller's wait leaves the cell intact, since the loader
//     may still succeed for someone else.
//
// Basic usage
//
//	d := loadingdict.New[string, []byte](loadingdict.Options[string, []byte]{
//	    Loader: func(ctx context.Context, key string) ([]byte, error) {
//	        return fetchFromUpstream(ctx, key)
//	    },
//	})
//	v, err := d.Get(context.Background(), "key")
//
// Preloading
//
//	d := loadingdict.New[string, int](loadingdict.Options[string, int]{
//	    Loader:  load,
//	    Initial: map[string]int{"a": 1, "b": 2},
//	})
//
// Non-blocking access
//
//	f, _ := d.GetAsync("key")
//	// ... do other work ...
//	v, err := f.Wait(ctx)
package loadingdict
