// Package cache provides a fast, generic, sharded in-memory LRU/TLRU cache
// with an optional item lifetime applied uniformly to every entry, optional
// in-place replacement on collision,
// singleflight loading, and lightweight metrics hooks.
//
// Design
//
//   - Indexing: a single process-wide concurrent hash index (sync.Map) maps
//     every key directly to its *entry, regardless of which shard the entry
//     lives in. The index is the only structure ever consulted to answer
//     "does key K exist"; shards never perform lookups.
//
//   - Sharding: each entry is assigned to a uniformly random shard at
//     construction time (math/rand/v2), not one derived from the key's
//     hash. This keeps shard sizes balanced in expectation without a second
//     hash computation and without the distribution being influenced by key
//     choice. Each shard is an intrusive MRU↔LRU doubly linked list guarded
//     by its own Mutex; list operations are O(1).
//
//   - Eviction: when an insert pushes the index above Capacity, exactly one
//     entry — the current LRU tail of the shard that just grew — is
//     evicted. This is a deliberate approximation: the globally
//     least-recently-used entry across all shards is not always the one
//     removed, only the least-recently-used entry of the shard that
//     happened to receive the triggering insert.
//
//   - TTL (TLRU): when Options.ItemLifetime is positive, every entry is
//     stamped with an absolute expiry at insert time. Expiration is lazy,
//     checked on Get; there is no background sweeper.
//
//   - Put-collision policy: Options.UpdateExisting decides what happens when
//     Put targets a key that already exists. false (default) promotes the
//     existing entry to MRU and discards the new value. true replaces the
//     existing entry outright with a freshly constructed one, which may land
//     in a different shard than the entry it replaced.
//
//   - GetOrLoad: coalesces concurrent loads for the same key behind an
//     internal in-flight map, so Loader runs at most once per miss. If
//     Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals. By
//     default NoopMetrics is used; metrics/prom provides a Prometheus
//     adapter.
//
//   - Callbacks: Options.OnEvict(k, v, reason) is called for every eviction
//     (reason is one of EvictLRU, EvictTTL, EvictReplace).
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v // use value
//	}
//	c.Remove("a")
//
// With TLRU
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity:     1024,
//	    ItemLifetime: 200 * time.Millisecond,
//	})
//	c.Put("tmp", "v")
//	time.Sleep(300 * time.Millisecond)
//	_, ok := c.Get("tmp") // ok == false (expired)
//
// With GetOrLoad (singleflight)
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil // e.g. fetch from DB
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
//
// Exporting metrics (Prometheus adapter)
//
//	m := prom.New(nil, "latchcache", "demo", nil) // implements cache.Metrics
//	c := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    Metrics:  m,
//	})
//
// Thread-safety & complexity
//
// All methods on Cache are safe for concurrent use. Typical operation cost
// is amortized O(1): one sync.Map operation plus a constant amount of
// pointer fixups under a single shard lock. Eviction work is also O(1) per
// removed item.
//
// See options.go for the full set of Options fields.
package cache
