package actor

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// applyOrThrowIfStopped is spec component C8: the system-map guard that
// resolves a Ref to its live Parent capability and asserts it has not
// stopped before running fn. The check is not held across fn: an actor that
// stops in between is caught again by the stopped checks registerChild and
// dispatchInternal make under the actor's own mutex. Used by Spawn, whose
// parentRef may address either the system root or an ordinary actor.
func applyOrThrowIfStopped(ref *Ref, fn func(p Parent)) {
	if ref.system == nil {
		panic(&UsageError{Err: fmt.Errorf("%w: unbound reference", ErrReferenceNotFound)})
	}

	if ref == ref.system.rootRef {
		fn(ref.system)
		return
	}

	a, ok := ref.system.resolveActor(ref)
	if !ok {
		fail(fmt.Errorf("%w: %s", ErrReferenceNotFound, ref.Path()))
	}
	if a.isStopped() {
		fail(fmt.Errorf("%w: %s", ErrActorStopped, ref.Path()))
	}
	fn(a)
}

// withLiveActor is applyOrThrowIfStopped specialized to references that
// must address an ordinary actor (never the root) — the target of
// Dispatch, Query, and StopRef.
func withLiveActor(ref *Ref, fn func(a *Actor)) {
	applyOrThrowIfStopped(ref, func(p Parent) {
		a, ok := p.(*Actor)
		if !ok {
			fail(fmt.Errorf("%w: %s", ErrActorStopped, ref.Path()))
		}
		fn(a)
	})
}

// Dispatch sends msg to the actor ref addresses (spec.md §4.6.2). It
// returns a future that settles immediately — dispatch is fire-and-forget;
// the returned future only confirms enqueueing, not processing.
func Dispatch(ref *Ref, msg any) Future {
	var fut Future
	withLiveActor(ref, func(a *Actor) {
		fut = a.dispatchInternal(msg)
	})
	return fut
}

// Query sends the message factory(replyRef) produces to the actor ref
// addresses, and returns a future that settles when some actor calls
// Reply/Fail on replyRef, or rejects with ErrQueryTimeout if timeout
// elapses first (spec.md §4.6.6). timeout must be present (fn.Some); an
// absent timeout is a usage error.
func Query(ref *Ref, factory func(reply *Ref) any, timeout fn.Option[time.Duration]) Future {
	var fut Future
	withLiveActor(ref, func(a *Actor) {
		fut = a.query(factory, timeout)
	})
	return fut
}

// StopRef stops the actor ref addresses (spec.md §4.6.7). A no-op if the
// actor has already stopped.
func StopRef(ref *Ref) {
	if ref.system != nil && ref != ref.system.rootRef {
		a, ok := ref.system.resolveActor(ref)
		if !ok {
			// stop unregisters the actor, so it has already stopped.
			return
		}
		a.stop()
		return
	}
	withLiveActor(ref, func(a *Actor) {
		a.stop()
	})
}
