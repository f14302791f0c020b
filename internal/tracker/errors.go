// Package tracker implements the session lifecycle and time/earnings
// aggregation engine: a start/stop state machine over a single open entry
// per user, plus pure windowed aggregation of worked seconds and earnings.
package tracker

import "fmt"

// ValidationError reports missing or malformed input. It is never worth
// retrying; the operation had no effect.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// StoreError wraps a transient backend failure. The state machine stays in
// its pre-call state, so the same operation can be retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: store: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ConflictError means a precondition no longer holds (the entry was closed
// or deleted externally, or another open entry exists). The caller should
// re-fetch current state rather than retry the same mutation.
type ConflictError struct {
	Op     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: conflict: %s", e.Op, e.Reason)
}
