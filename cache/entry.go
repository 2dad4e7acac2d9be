package cache

import "sync/atomic"

// entry is an intrusive doubly linked list element owned by exactly one
// shard's recency list. It is also the value stored under its key in the
// cache's global hash index.
//
// Fields other than prev/next/valid are effectively immutable once
// constructed: a put that must change the value for an existing key either
// promotes the existing entry (update_existing=false) or installs a brand
// new entry in the index and that entry's shard (update_existing=true,
// "replace"). There is no in-place value mutation, so readers may use val
// without synchronization once they have observed the entry via the index.
type entry[K comparable, V any] struct {
	key K
	val V

	// exp is the absolute expiry deadline in UnixNano. Zero means no TTL.
	// Only meaningful when the owning cache has TLRU enabled.
	exp int64

	// shard is the recency list this entry is linked into. Set once at
	// construction and never changed; a replace installs a new entry with
	// its own shard rather than moving an entry between shards.
	shard *shard[K, V]

	// Intrusive list links, guarded by shard.mu.
	prev *entry[K, V]
	next *entry[K, V]

	// valid is true while the entry is linked into both the index and its
	// shard's list. It is flipped to false as the first step of
	// removing/evicting the entry, so that a promotion racing with a
	// removal can detect "this entry is being torn down" and no-op. It is
	// an atomic.Bool rather than a plain bool specifically so that callers
	// may cheaply pre-check it before acquiring the shard lock (§4.1
	// double-checked manipulation); all writes still happen under the
	// shard lock, so this is belt-and-suspenders, not a replacement for it.
	valid atomic.Bool
}
