package actor

import "errors"

// Usage errors are reported as hard failures at the call site: the engine
// panics with one of these wrapped in a *UsageError rather than returning it,
// matching the "loud assertion" contract for programmer bugs.
var (
	// ErrActorStopped indicates an operation was attempted against an
	// actor that has already terminated.
	ErrActorStopped = errors.New("actor: operation on stopped actor")

	// ErrParentStopped indicates a spawn was attempted under a parent
	// that has already terminated.
	ErrParentStopped = errors.New("actor: cannot spawn under stopped parent")

	// ErrDuplicateChild indicates a child name collided with an existing
	// sibling under the same parent.
	ErrDuplicateChild = errors.New("actor: duplicate child name")

	// ErrMissingTimeout indicates Query was called without a timeout.
	ErrMissingTimeout = errors.New("actor: query requires a timeout")

	// ErrNoChild indicates stopChild/resetChild was returned from a
	// supervision decision with no child identified.
	ErrNoChild = errors.New("actor: stopChild/resetChild requires a child")
)

// ErrReferenceNotFound is the error the system-map guard panics with,
// wrapped in a *UsageError, when a reference no longer resolves to a live
// actor.
var ErrReferenceNotFound = errors.New("actor: reference does not resolve to a live actor")

// ErrQueryTimeout rejects a query's future when no reply arrives before the
// caller-supplied timeout elapses (spec.md §4.6.6). Unlike the errors above,
// this is an ordinary returned/rejected error, not a usage panic — a query
// timing out is an expected runtime outcome, not a programmer mistake.
var ErrQueryTimeout = errors.New("actor: query timed out")

// UsageError wraps a programmer-error condition detected synchronously at a
// call site. The engine panics with this type so that a recovering test
// harness (or a host's top-level recover) can distinguish it from a genuine
// runtime panic.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func fail(err error) {
	panic(&UsageError{Err: err})
}
