package internalerr

import "errors"

// Sentinel errors for common cases
var (
	// ErrNoMatch signals that retrieval produced zero candidates. It is a
	// first-class outcome, not a fault: callers divert to the AI fallback.
	ErrNoMatch = errors.New("no matching items")

	// ErrBusy is returned when the same user already has an operation of the
	// same kind in flight. The duplicate request should simply no-op.
	ErrBusy = errors.New("operation already in progress")

	// ErrStoreUnavailable is returned after bounded write-lock retries on the
	// backing store are exhausted.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidInput = errors.New("invalid input")
)
