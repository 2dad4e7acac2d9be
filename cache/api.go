package cache

import (
	"context"
)

// Cache is a sharded, in-memory key/value cache with LRU (optionally
// time-aware, TLRU) eviction. All methods are safe for concurrent use by
// multiple goroutines.
//
// Typical complexity for Get/Put/Remove is amortized O(1): one hash-index
// operation plus constant-time pointer fixups under a single shard lock.
type Cache[K comparable, V any] interface {
	// Add inserts k→v only if k is not present. Returns false if the key
	// already exists (no update or promotion is performed).
	Add(k K, v V) bool

	// Put inserts or updates k→v. On a collision with an existing key, the
	// cache's UpdateExisting policy decides whether the new value replaces
	// the old one or is discarded after promoting the existing entry.
	Put(k K, v V)

	// Get returns the value for k and a boolean flag indicating presence.
	// On hit, the entry is promoted to MRU in its shard.
	Get(k K) (V, bool)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Len returns the total number of resident entries across all shards.
	Len() int

	// Reset clears all shards and counters, returning the cache to an
	// empty state.
	Reset()

	// Close stops background workers (if any) and marks the cache closed.
	// The current implementation has no background workers; Close is a
	// soft close and always returns nil.
	Close() error

	// GetOrLoad returns the value for k, loading it via Options.Loader on
	// miss (or TLRU expiry). Concurrent loads for the same key are
	// coalesced so the loader runs at most once per miss. If no Loader was
	// configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Warm eagerly loads and inserts each of keys via Options.Loader,
	// stopping at the first error. The caller is responsible for ensuring
	// the supplied set fits within capacity; Warm performs no reservation
	// or pre-sizing of its own. Returns ErrNoLoader if no Loader was
	// configured.
	Warm(ctx context.Context, keys []K) error

	// Requests and Misses report the lifetime request/miss counters.
	Requests() int64
	Misses() int64
	// MissRatio is Misses/Requests, or 0 if there have been no requests.
	MissRatio() float64
}
