package cache

import "fmt"

// ErrNoLoader is returned by GetOrLoad when no Loader was configured.
var ErrNoLoader = errNoLoader{}

type errNoLoader struct{}

func (errNoLoader) Error() string { return "cache: no loader configured" }

// InvariantViolation indicates a programming error the cache detected in
// itself: a replace attempted across distinct keys, or a removal of an
// entry from a shard other than its owner. These are fatal — the
// implementation panics rather than attempting to limp forward with a
// corrupted recency list. Divergence between the index and the shard lists
// is not checked for. New also panics with this type for a non-positive
// Capacity.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("cache: invariant violation: %s", e.Reason)
}
