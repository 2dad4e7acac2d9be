package loadingdict

import "fmt"

// ErrInvalidArgument is returned for invalid call arguments, such as a nil
// key passed to Get or GetAsync. New also panics with this value if
// ConcurrencyLevel is negative — invalid at construction, not just at
// call time, so there is no well-formed Dict to return an error from.
var ErrInvalidArgument = errInvalidArgument{}

type errInvalidArgument struct{}

func (errInvalidArgument) Error() string { return "loadingdict: invalid argument" }

// KeyNotFoundError reports that a key's loader faulted. Cause is the
// loader's error, unwrapped one level if it was an aggregate containing
// exactly one inner error.
type KeyNotFoundError[K comparable] struct {
	Key   K
	Cause error
}

func (e *KeyNotFoundError[K]) Error() string {
	return fmt.Sprintf("loadingdict: key %v not found: %v", e.Key, e.Cause)
}

func (e *KeyNotFoundError[K]) Unwrap() error { return e.Cause }

// CancelledError reports that the caller's cancellation signal fired before
// the value was produced. It does not imply the loader failed or stopped;
// the underlying cell is retained so a later caller may still observe a
// successful result.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("loadingdict: cancelled: %v", e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// InvariantViolation indicates a construction-time programming error
// detected by the dictionary itself, such as a nil Loader. Fatal; the
// implementation panics rather than continuing in a state it cannot serve
// requests from.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("loadingdict: invariant violation: %s", e.Reason)
}
