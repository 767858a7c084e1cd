package actor

import "github.com/lightningnetwork/lnd/fn/v2"

// Spawn is the public spawn facade (spec component C7). parentRef may
// address either an ordinary actor or the system root (System.RootRef),
// which is what lets a single entrypoint cover both "spawn a top-level
// actor" and "spawn a child of an existing actor" (spec.md §4.7).
//
// Spawn panics with a *UsageError if parentRef does not resolve to a live
// parent, or if props.Name collides with an existing sibling — spawning is
// a hard, synchronous assertion at the call site (spec.md §7), not a
// recoverable error return.
func Spawn(parentRef *Ref, behavior Behavior, props Props) *Ref {
	var child *Actor
	applyOrThrowIfStopped(parentRef, func(p Parent) {
		child = newActor(p, parentRef.system, props, behavior)
	})
	return child.selfRef
}

// StatelessFunc is a behavior with no state to thread through: it receives
// only the message and context, and reports failure by returning a non-nil
// error (spec.md §4.7: "a stateless actor's own state is always nil/unit").
type StatelessFunc func(msg any, ctx *Context) error

// SpawnStateless spawns an actor whose behavior ignores state entirely and
// whose supervision policy is always StatelessSupervisor (always resume),
// regardless of anything set on props.OnCrash — resolving spec.md §9's open
// question on stateless fault routing by making resume the fixed,
// unbypassable policy rather than merely the default.
//
// The user function is not invoked inline on the actor's own dispatch
// macrotask: it is scheduled onto its own, independent macrotask (spec.md
// §4.7). A fault raised there is routed back by resolving the actor's own
// self-reference through the system map at the moment the fault occurs,
// rather than by closing over the *Actor directly — by the time the
// independent call finishes, the actor may already have stopped and been
// removed from the system map, in which case there is no supervisor left
// to consult and the error is re-thrown to the host instead.
func SpawnStateless(parentRef *Ref, f StatelessFunc, props Props) *Ref {
	props.OnCrash = StatelessSupervisor
	props.InitialState = nil
	props.InitialStateFunc = nil

	wrapped := func(_ any, msg any, ctx *Context) fn.Result[any] {
		self := ctx.Self
		scheduleMacrotask(func() {
			if err := invokeStateless(f, msg, ctx); err != nil {
				routeStatelessFault(self, msg, err)
			}
		})
		return fn.Ok[any](nil)
	}
	return Spawn(parentRef, wrapped, props)
}

// invokeStateless runs the user function, converting a panic into an error
// the same way invokeBehavior does for an ordinary behavior.
func invokeStateless(f StatelessFunc, msg any, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToErr(r)
		}
	}()
	return f(msg, ctx)
}

// routeStatelessFault implements the fault-routing half of spec.md §4.7's
// independently-scheduled stateless dispatch: look the owning actor up
// through its own self-reference, and either hand the fault to its
// handleFault exactly as any synchronous behavior fault would be, or — if
// the actor is no longer resident — re-throw the error to the host, since
// there is nothing left in the system map to supervise it. This panic is
// deliberately unrecovered: it is the "re-thrown to the host" path, not an
// internal failure to swallow.
func routeStatelessFault(self *Ref, msg any, err error) {
	a, ok := self.system.resolveActor(self)
	if !ok {
		panic(err)
	}
	a.handleFault(msg, err, nil)
}
