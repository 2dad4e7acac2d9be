package cache

import (
	"context"
	"time"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictLRU — removed because it was the least-recently-used entry in a
	// shard that grew past capacity.
	EvictLRU EvictReason = iota
	// EvictTTL — expired by TLRU (lazy eviction on access).
	EvictTTL
	// EvictReplace — removed because update_existing=true replaced it with
	// a new entry for the same key.
	EvictReplace
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// SyncLoader fetches a value for key on a cache miss, invoked synchronously
// on the calling goroutine (§4.4). Used by the LRU loading variant.
type SyncLoader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options configures the cache behavior. Capacity is required (New panics
// if it is not positive); every other field has a safe zero value, with
// defaults applied in New():
//   - Shards <= 0    => ReasonableShardCount (logical CPU count, clamped)
//   - nil Metrics    => NoopMetrics
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit (> 0, required).
	Capacity int

	// Shards is the number of independently-locked recency lists. If 0, an
	// automatic value is chosen (the logical CPU count, clamped to 256).
	Shards int

	// UpdateExisting controls put-collision behavior: when true, a Put
	// against an existing key replaces the stored entry in place (the new
	// entry takes over at the head of whichever shard it lands in); when
	// false (default), the existing entry is promoted to MRU and the new
	// value is discarded.
	UpdateExisting bool

	// ItemLifetime, when positive, enables TLRU: every entry is stamped
	// with an absolute expiry of now+ItemLifetime at insert time, and a
	// Get on an expired entry evicts it and reports a miss.
	ItemLifetime time.Duration

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader SyncLoader[K, V]

	// OnEvict is called on every eviction (LRU trim, TLRU expiry, replace)
	// after the shard lock has been released, on the goroutine whose
	// operation caused the eviction.
	OnEvict func(key K, val V, reason EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals. Nil => NoopMetrics.
	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}
