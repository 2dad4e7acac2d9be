// Package util contains internal helpers (padding, shard sizing) used by
// the cache package.
package util

import "runtime"

// ReasonableShardCount picks a practical default shard count based on CPU
// parallelism: the logical processor count, clamped to [1..256]. Shard
// assignment is randomized rather than key-derived (see cache package), so
// unlike a hash-sharded design there is no need to round to a power of two.
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	if p > 256 {
		p = 256
	}
	return p
}
