package actor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Behavior advances an actor's state in response to one message (spec.md
// §3: "f"). It may return a plain next-state value, or a value implementing
// Future — in which case the engine awaits it (on the message's own
// macrotask goroutine, so other actors are never blocked) before treating
// the unwrapped value as the next state. A panic inside Behavior is
// recovered and routed through the supervision path exactly like a
// returned error.
type Behavior func(state any, msg any, ctx *Context) fn.Result[any]

// InitialStateFunc computes an actor's starting state, possibly
// asynchronously (spec.md §4.6.1). Like Behavior, it may resolve to a
// Future and its panics are routed through the fault path.
type InitialStateFunc func(ctx *Context) fn.Result[any]

// AfterStopFunc runs once, asynchronously, after an actor has fully
// stopped (spec.md §4.6.7). Errors/panics from it are swallowed — the
// actor is already terminal.
type AfterStopFunc func(state any, ctx *Context)

// Props configures a new actor (spec.md §6). At most one of InitialState or
// InitialStateFunc should be set; if both are, InitialStateFunc wins.
type Props struct {
	// Name must be unique among the parent's existing children. If
	// empty, an opaque random token is assigned (spec.md §3).
	Name string

	// ShutdownAfter arms the idle-shutdown timer (spec.md §4.4, §4.6).
	// Absent (fn.None) disables idle shutdown.
	ShutdownAfter fn.Option[time.Duration]

	// OnCrash is the supervision policy. Defaults to DefaultSupervisor
	// (escalate) if nil.
	OnCrash SupervisorFunc

	// InitialState is the actor's starting state when InitialStateFunc
	// is not supplied.
	InitialState any

	// InitialStateFunc computes the starting state, possibly
	// asynchronously. Takes precedence over InitialState if both are
	// set.
	InitialStateFunc InitialStateFunc

	// AfterStop runs once after the actor has fully stopped.
	AfterStop AfterStopFunc
}

// Parent is the capability bundle spec.md §3 describes: "childSpawned,
// childStopped, handleFault, children, and (for non-root parents)
// dispatch." Both *Actor and *System (the engine's out-of-scope-but-
// required root collaborator, system.go) implement it, which is what lets
// Spawn treat "spawn under the root" and "spawn under an existing actor"
// identically.
type Parent interface {
	// parentRef returns this parent's own reference, used to build a
	// new child's Path and to populate Context.Parent.
	parentRef() *Ref

	// registerChild atomically checks name-uniqueness and registers c
	// as a child, or returns ErrDuplicateChild/ErrParentStopped.
	registerChild(c *Actor) error

	// childStopped removes c from this parent's bookkeeping.
	childStopped(c *Actor)

	// handleFault adjudicates a fault raised by child (nil means the
	// fault originated in this parent's own behavior/initialization).
	handleFault(msg any, err error, child *Actor)

	// childrenSnapshot returns a point-in-time copy of this parent's
	// current children.
	childrenSnapshot() []*Actor

	// isStopped reports whether this parent has terminated.
	isStopped() bool
}

// Actor is the engine's core (spec component C6): it owns state, a
// mailbox, and children, and runs the dispatch loop, lifecycle, fault
// handling, and queries described in spec.md §4.6.
//
// Concurrency model: per spec.md §9's own translation guidance ("each actor
// must serialize its mailbox via a lock or a dedicated worker"), each
// in-flight message is processed on its own macrotask goroutine
// (macrotask.go), chained one at a time by the busy/mailbox bookkeeping
// below, which is itself guarded by mu. No lock is ever held while a
// Behavior, InitialStateFunc, or SupervisorFunc actually runs — those run
// unlocked, so a slow user callback never blocks unrelated bookkeeping
// operations (childSpawned from a sibling, a concurrent Dispatch, etc.).
type Actor struct {
	name      string
	actorPath Path
	selfRef   *Ref
	system    *System

	behavior         Behavior
	onCrash          SupervisorFunc
	afterStop        AfterStopFunc
	initialState     any
	initialStateFunc InitialStateFunc
	hasShutdown      bool
	shutdownAfter    time.Duration

	mbox *mailbox

	mu        sync.Mutex
	parent    Parent
	children  map[string]*Actor
	childRefs map[string]*Ref
	busy      bool
	stopped   bool
	immediate *macrotaskHandle
	idleTimer *timerHandle

	stateMu sync.Mutex
	state   any

	initMu   sync.Mutex
	initDone *Deferral

	stopOnce sync.Once
}

// newActor constructs an actor under parent, fully wired per spec.md
// §4.6's Construction steps 2-6, but does not itself perform the
// not-stopped assertion on parent (step 1) — callers (Spawn, via the
// system-map guard) are expected to have already done that atomically.
func newActor(parent Parent, system *System, props Props, behavior Behavior) *Actor {
	name := props.Name
	if name == "" {
		name = uuid.NewString()
	}

	onCrash := props.OnCrash
	if onCrash == nil {
		onCrash = DefaultSupervisor
	}

	hasShutdown := props.ShutdownAfter.IsSome()
	shutdownAfter := clampDuration(props.ShutdownAfter.UnwrapOr(0))

	a := &Actor{
		name:             name,
		actorPath:        parent.parentRef().Path().Child(name),
		system:           system,
		behavior:         behavior,
		onCrash:          onCrash,
		afterStop:        props.AfterStop,
		initialState:     props.InitialState,
		initialStateFunc: props.InitialStateFunc,
		hasShutdown:      hasShutdown,
		shutdownAfter:    shutdownAfter,
		mbox:             newMailbox(),
		children:         make(map[string]*Actor),
		childRefs:        make(map[string]*Ref),
	}
	a.selfRef = &Ref{id: uuid.NewString(), path: a.actorPath, name: name, system: system}

	if err := parent.registerChild(a); err != nil {
		fail(err)
	}
	a.mu.Lock()
	a.parent = parent
	a.mu.Unlock()

	system.registerActor(a)
	logActorEvent(context.Background(), a, "Actor spawned")

	a.startInit()

	a.mu.Lock()
	a.armIdleTimerLocked()
	a.mu.Unlock()

	return a
}

// clampDuration applies spec.md §4.4's clamping rules to a time.Duration
// expressed via fn.Option.
func clampDuration(d time.Duration) time.Duration {
	return time.Duration(clampMillis(float64(d.Milliseconds()))) * time.Millisecond
}

func panicToErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

func unpackResult(res fn.Result[any]) (value any, err error) {
	res.WhenOk(func(v any) { value = v })
	res.WhenErr(func(e error) { err = e })
	return value, err
}

// awaitFutureValue resolves v one level further if it itself is a Future —
// this is how Behavior/InitialStateFunc's "nextState | future<nextState>"
// return shape (spec.md §3) is honored. It runs synchronously on the
// calling macrotask goroutine, so it suspends only this actor's own
// progress, never another actor's.
func awaitFutureValue(v any, err error) (any, error) {
	if err != nil {
		return v, err
	}
	if fut, ok := v.(Future); ok {
		res := fut.Await(context.Background())
		return unpackResult(res)
	}
	return v, nil
}

// startInit kicks off state initialization (spec.md §4.6.1). Every message
// handler awaits a.initDone before invoking the behavior, so messages
// dispatched before initialization completes are buffered, not dropped.
func (a *Actor) startInit() {
	d := NewDeferral()
	a.initMu.Lock()
	a.initDone = d
	a.initMu.Unlock()

	if a.initialStateFunc == nil {
		a.stateMu.Lock()
		a.state = a.initialState
		a.stateMu.Unlock()
		d.Resolve(a.state)
		return
	}

	scheduleMacrotask(func() {
		ctx := a.buildContext()
		result := a.invokeInitFunc(ctx)
		value, err := awaitFutureValue(unpackResult(result))
		if err != nil {
			d.Reject(err)
			a.handleFault(nil, err, nil)
			return
		}
		a.stateMu.Lock()
		a.state = value
		a.stateMu.Unlock()
		d.Resolve(value)
	})
}

func (a *Actor) invokeInitFunc(ctx *Context) (result fn.Result[any]) {
	defer func() {
		if r := recover(); r != nil {
			result = fn.Err[any](panicToErr(r))
		}
	}()
	return a.initialStateFunc(ctx)
}

func (a *Actor) awaitInit() {
	a.initMu.Lock()
	d := a.initDone
	a.initMu.Unlock()
	if d == nil {
		return
	}
	d.Future().Await(context.Background())
}

func (a *Actor) currentState() any {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.state
}

// buildContext assembles the Context passed to Behavior and SupervisorFunc
// invocations (spec.md §4.6.5): a snapshot of children so user mutation
// can't affect internal bookkeeping, plus a read-only mailbox view.
func (a *Actor) buildContext() *Context {
	a.mu.Lock()
	childrenCopy := make(map[string]*Ref, len(a.childRefs))
	for k, v := range a.childRefs {
		childrenCopy[k] = v
	}
	var parentRef *Ref
	if a.parent != nil {
		parentRef = a.parent.parentRef()
	}
	a.mu.Unlock()

	return &Context{
		Self:      a.selfRef,
		Parent:    parentRef,
		Path:      a.actorPath,
		Name:      a.name,
		Children:  childrenCopy,
		Mailbox:   mailboxView{a.mbox},
		Decisions: standardDecisions,
	}
}

// dispatchInternal is the engine-internal send path used once a caller has
// already been authenticated against a live, non-stopped actor by the
// system-map guard (Dispatch, in guard.go, is the externally-facing
// entrypoint). It implements spec.md §4.6.2 exactly: assert not stopped,
// clear the idle timer, and either begin processing immediately or enqueue.
func (a *Actor) dispatchInternal(msg any) Future {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		fail(ErrActorStopped)
	}
	a.idleTimer.cancel()
	a.idleTimer = nil

	if !a.busy {
		a.busy = true
		a.mu.Unlock()
		a.beginProcessing(msg)
	} else {
		a.mbox.push(msg)
		a.mu.Unlock()
		a.checkMailboxCapacity()
	}

	return settledFuture()
}

// checkMailboxCapacity logs a warning whenever an enqueue leaves a mailbox
// deeper than the system's advisory MailboxCapacity (spec.md §5: unbounded
// is the contract, a logged-but-not-enforced cap is an allowed
// implementation detail). A capacity of zero disables the check.
func (a *Actor) checkMailboxCapacity() {
	capacity := a.system.config.MailboxCapacity
	if capacity <= 0 {
		return
	}
	if depth := a.mbox.len(); depth > capacity {
		log.WarnS(context.Background(), "Mailbox depth exceeds advisory capacity", nil,
			"actor_id", a.selfRef.ID(), "path", a.actorPath.String(),
			"depth", depth, "capacity", capacity)
	}
}

func settledFuture() Future {
	d := NewDeferral()
	d.Resolve(nil)
	return d.Future()
}

// beginProcessing schedules a single macrotask to run msg through the
// behavior (spec.md §4.6.3).
func (a *Actor) beginProcessing(msg any) {
	handle := scheduleMacrotask(func() { a.runOneMessage(msg) })
	a.mu.Lock()
	a.immediate = handle
	a.mu.Unlock()
}

// runOneMessage implements spec.md §4.6.3 steps 1-5.
func (a *Actor) runOneMessage(msg any) {
	a.awaitInit()
	ctx := a.buildContext()

	value, err := awaitFutureValue(unpackResult(a.invokeBehavior(msg, ctx)))
	if err != nil {
		a.handleFault(msg, err, nil)
		return
	}

	a.stateMu.Lock()
	a.state = value
	a.stateMu.Unlock()

	a.processNext()
}

func (a *Actor) invokeBehavior(msg any, ctx *Context) (result fn.Result[any]) {
	defer func() {
		if r := recover(); r != nil {
			result = fn.Err[any](panicToErr(r))
		}
	}()
	return a.behavior(a.currentState(), msg, ctx)
}

// processNext implements spec.md §4.6.3's processNext: drain the next
// mailbox entry, or go idle and re-arm the shutdown timer.
func (a *Actor) processNext() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}

	msg, ok := a.mbox.shift()
	if ok {
		a.mu.Unlock()
		a.beginProcessing(msg)
		return
	}

	a.busy = false
	a.armIdleTimerLocked()
	a.mu.Unlock()
}

// armIdleTimerLocked must be called with a.mu held. It implements spec.md
// invariant 6: the idle timer is armed only while busy is false and
// shutdownAfter is configured.
func (a *Actor) armIdleTimerLocked() {
	if !a.hasShutdown {
		return
	}
	a.idleTimer = after(float64(a.shutdownAfter.Milliseconds()), a.fireIdleShutdown)
}

func (a *Actor) fireIdleShutdown() {
	a.mu.Lock()
	if a.stopped || a.busy {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	logActorEvent(context.Background(), a, "Idle shutdown firing")
	a.stop()
}

// handleFault implements spec.md §4.6.4. child is nil when the fault
// originated in this actor's own behavior or initialization; non-nil when a
// child escalated a fault to this actor as its supervisor.
func (a *Actor) handleFault(msg any, err error, child *Actor) {
	ctx := a.buildContext()

	var childRef *Ref
	if child != nil {
		childRef = child.selfRef
	}

	logFaultEvent(context.Background(), a, err, childRef)

	decision := a.onCrash(msg, err, ctx, childRef)
	a.applyDecision(decision, msg, err, child)
}

// applyDecision resolves spec.md §4.5's table. The "subject" of a
// self-referential decision (Stop, Resume, Reset, StopAllChildren,
// ResetAllChildren) is the actor that actually faulted: child when this
// fault was escalated from a child, or this actor (a) when it faulted
// directly. This reading is pinned down by spec.md §8's worked Reset
// scenario, where the *child's* initializer reruns even though it is the
// *parent's* onCrash that returns Reset — see DESIGN.md.
func (a *Actor) applyDecision(decision Decision, msg any, err error, child *Actor) {
	subject := a
	if child != nil {
		subject = child
	}

	switch decision {
	case Stop:
		subject.stop()

	case StopAll:
		subject.stopWithPeers()

	case StopChild:
		if child == nil {
			fail(ErrNoChild)
		}
		child.stop()

	case StopAllChildren:
		subject.stopAllChildren()

	case Resume:
		subject.processNext()

	case Reset:
		subject.resetSelf()

	case ResetAll:
		subject.resetWithPeers()

	case ResetChild:
		if child == nil {
			fail(ErrNoChild)
		}
		child.resetSelf()

	case ResetAllChildren:
		subject.resetAllChildren()

	default: // Escalate, and any unrecognized value (spec.md testable property 9).
		a.escalateToParent(msg, err)
	}
}

func (a *Actor) escalateToParent(msg any, err error) {
	a.mu.Lock()
	parent := a.parent
	a.mu.Unlock()

	if parent == nil {
		// Root-adjacent actor with no parent capability left (already
		// stopped mid-fault): nothing left to escalate to.
		return
	}
	parent.handleFault(msg, err, a)
}

func (a *Actor) stopAllChildren() {
	for _, c := range a.childrenSnapshot() {
		c.stop()
	}
}

func (a *Actor) resetAllChildren() {
	for _, c := range a.childrenSnapshot() {
		c.resetSelf()
	}
}

func (a *Actor) stopWithPeers() {
	a.mu.Lock()
	parent := a.parent
	a.mu.Unlock()
	if parent == nil {
		a.stop()
		return
	}
	for _, peer := range parent.childrenSnapshot() {
		peer.stop()
	}
}

func (a *Actor) resetWithPeers() {
	a.mu.Lock()
	parent := a.parent
	a.mu.Unlock()
	if parent == nil {
		a.resetSelf()
		return
	}
	for _, peer := range parent.childrenSnapshot() {
		peer.resetSelf()
	}
}

// resetSelf implements spec.md §4.6.4's Reset: stop every current child,
// restart state initialization, then resume. The mailbox is preserved —
// busy stays true throughout, so concurrent dispatches still enqueue in
// order rather than racing ahead of the reinitialized state.
func (a *Actor) resetSelf() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.idleTimer.cancel()
	a.idleTimer = nil
	a.mu.Unlock()

	logActorEvent(context.Background(), a, "Resetting")

	a.stopAllChildren()
	a.startInit()
	a.processNext()
}

// stop implements spec.md §4.6.7.
func (a *Actor) stop() {
	a.stopOnce.Do(a.doStop)
}

func (a *Actor) doStop() {
	ctx := a.buildContext()

	a.mu.Lock()
	a.immediate.cancel()
	a.idleTimer.cancel()
	a.mu.Unlock()

	a.mu.Lock()
	parent := a.parent
	a.parent = nil
	a.mu.Unlock()
	if parent != nil {
		parent.childStopped(a)
	}

	a.mu.Lock()
	children := make([]*Actor, 0, len(a.children))
	for _, c := range a.children {
		children = append(children, c)
	}
	a.stopped = true
	a.mu.Unlock()

	for _, c := range children {
		c.stop()
	}

	a.system.unregisterActor(a)
	logActorEvent(context.Background(), a, "Actor stopped")

	if a.afterStop != nil {
		state := a.currentState()
		scheduleMacrotask(func() {
			defer func() { _ = recover() }() // afterStop errors are swallowed (spec.md §7.5).
			a.afterStop(state, ctx)
		})
	}
}

// --- Parent interface -------------------------------------------------

func (a *Actor) parentRef() *Ref { return a.selfRef }

func (a *Actor) registerChild(c *Actor) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrParentStopped
	}
	if _, exists := a.children[c.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateChild, c.name)
	}
	a.children[c.name] = c
	a.childRefs[c.name] = c.selfRef
	return nil
}

func (a *Actor) childStopped(c *Actor) {
	a.mu.Lock()
	delete(a.children, c.name)
	delete(a.childRefs, c.name)
	a.mu.Unlock()
}

func (a *Actor) childrenSnapshot() []*Actor {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Actor, 0, len(a.children))
	for _, c := range a.children {
		out = append(out, c)
	}
	return out
}

func (a *Actor) isStopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// --- Query (spec.md §4.6.6) --------------------------------------------

// query implements spec.md §4.6.6. factory receives the temp reference and
// builds the outgoing message; whichever actor eventually handles that
// message resolves the query by calling Ref.Reply/Ref.Fail on it.
func (a *Actor) query(factory func(reply *Ref) any, timeout fn.Option[time.Duration]) Future {
	if a.isStopped() {
		fail(ErrActorStopped)
	}
	if timeout.IsNone() {
		fail(ErrMissingTimeout)
	}
	ms := clampMillis(float64(timeout.UnwrapOr(0).Milliseconds()))

	d := NewDeferral()
	replyRef := a.system.addTempReference(d)

	timer := after(float64(ms), func() {
		logActorEvent(context.Background(), a, "Query timed out")
		a.system.removeTempReference(replyRef.id)
		d.Reject(fmt.Errorf("%w: no reply within %dms", ErrQueryTimeout, ms))
	})

	d.Future().OnComplete(context.Background(), func(fn.Result[any]) {
		timer.cancel()
		a.system.removeTempReference(replyRef.id)
	})

	msg := factory(replyRef)
	a.dispatchInternal(msg)

	return d.Future()
}
