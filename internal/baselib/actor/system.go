package actor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// System is the root of an actor tree (spec.md §1/§6's "out of primary
// scope, but required collaborator"). It owns the process-wide system map
// (spec component C8) that resolves a Ref back to its live Actor, the
// temp-reference table queries use to correlate replies, and acts as the
// Parent capability for top-level actors the way an ordinary Actor acts as
// Parent for its own children.
//
// Mirrors the way the teacher's system.go centralizes actor bookkeeping
// (ActorSystem.actors), generalized from the teacher's flat service
// registry to the tree-shaped registry this spec requires.
type System struct {
	rootRef *Ref
	config  SystemConfig

	mu       sync.RWMutex
	registry map[string]*Actor // ref id -> live actor, anywhere in the tree
	topLevel map[string]*Actor // root's direct children, by name

	tempMu   sync.Mutex
	tempRefs map[string]*Deferral // outstanding query temp-references

	unhandledFaultMu sync.Mutex
	onUnhandledFault func(msg any, err error, child *Ref)
}

// SystemConfig holds optional, system-wide tuning knobs, mirroring the
// teacher's SystemConfig/NewActorSystemWithConfig split between a default
// zero-config constructor and an explicit one.
//
// spec.md §5 is explicit that the mailbox contract itself is unbounded —
// "an implementation may log or cap, but that is not part of the
// contract" — so MailboxCapacity is a soft, advisory threshold: crossing it
// only produces a log line (see dispatchInternal), never a rejected
// dispatch or back-pressure.
type SystemConfig struct {
	// MailboxCapacity is the depth at which a warning is logged about a
	// single actor's mailbox. Zero disables the check entirely.
	MailboxCapacity int
}

// DefaultSystemConfig returns the zero-value configuration: no mailbox
// depth warnings.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{}
}

// NewActorSystem creates an empty actor system using DefaultSystemConfig.
func NewActorSystem() *System {
	return NewActorSystemWithConfig(DefaultSystemConfig())
}

// NewActorSystemWithConfig creates an empty actor system with explicit
// tuning knobs.
func NewActorSystemWithConfig(config SystemConfig) *System {
	s := &System{
		config:   config,
		registry: make(map[string]*Actor),
		topLevel: make(map[string]*Actor),
		tempRefs: make(map[string]*Deferral),
	}
	s.rootRef = &Ref{id: "root:" + uuid.NewString(), path: RootPath, name: "", system: s}
	return s
}

// RootRef returns the reference to pass as parentRef when spawning a
// top-level actor.
func (s *System) RootRef() *Ref { return s.rootRef }

// OnUnhandledFault registers a callback invoked when a top-level actor
// escalates a fault past the root (spec.md §4.5: the root is the terminal
// supervisor). The default behavior, if none is registered, is to log the
// fault loudly and otherwise do nothing — the host decides for itself
// whether an unhandled top-level fault should terminate the process.
func (s *System) OnUnhandledFault(fn func(msg any, err error, child *Ref)) {
	s.unhandledFaultMu.Lock()
	s.onUnhandledFault = fn
	s.unhandledFaultMu.Unlock()
}

func (s *System) registerActor(a *Actor) {
	s.mu.Lock()
	s.registry[a.selfRef.id] = a
	s.mu.Unlock()
}

func (s *System) unregisterActor(a *Actor) {
	s.mu.Lock()
	delete(s.registry, a.selfRef.id)
	s.mu.Unlock()
}

func (s *System) resolveActor(ref *Ref) (*Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.registry[ref.id]
	return a, ok
}

func (s *System) addTempReference(d *Deferral) *Ref {
	id := uuid.NewString()
	s.tempMu.Lock()
	s.tempRefs[id] = d
	s.tempMu.Unlock()
	return &Ref{id: id, path: RootPath.Child("temp").Child(id), name: id, system: s}
}

func (s *System) removeTempReference(id string) {
	s.tempMu.Lock()
	delete(s.tempRefs, id)
	s.tempMu.Unlock()
}

// resolveTempReference looks up and removes the deferral registered under
// id, then settles it. A second call for the same id (e.g. a reply racing
// a timeout) is a harmless no-op — Deferral.Resolve/Reject are themselves
// idempotent, and the table entry is gone after the first call anyway.
func (s *System) resolveTempReference(id string, value any, err error) {
	s.tempMu.Lock()
	d, ok := s.tempRefs[id]
	delete(s.tempRefs, id)
	s.tempMu.Unlock()

	if !ok {
		return
	}
	if err != nil {
		d.Reject(err)
		return
	}
	d.Resolve(value)
}

// --- Parent interface, as the tree root --------------------------------

func (s *System) parentRef() *Ref { return s.rootRef }

func (s *System) registerChild(c *Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.topLevel[c.name]; exists {
		return &duplicateChildError{name: c.name}
	}
	s.topLevel[c.name] = c
	return nil
}

func (s *System) childStopped(c *Actor) {
	s.mu.Lock()
	delete(s.topLevel, c.name)
	s.mu.Unlock()
}

func (s *System) childrenSnapshot() []*Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Actor, 0, len(s.topLevel))
	for _, c := range s.topLevel {
		out = append(out, c)
	}
	return out
}

func (s *System) isStopped() bool { return false }

// handleFault is the terminal supervisor: a top-level actor escalating past
// the root has nowhere further to go (spec.md §4.5). It logs loudly and
// defers to whatever policy the host installed via OnUnhandledFault.
func (s *System) handleFault(msg any, err error, child *Actor) {
	var childRef *Ref
	if child != nil {
		childRef = child.selfRef
	}

	logRootFaultEvent(context.Background(), err, childRef)

	s.unhandledFaultMu.Lock()
	cb := s.onUnhandledFault
	s.unhandledFaultMu.Unlock()
	if cb != nil {
		cb(msg, err, childRef)
	}
}

// Shutdown stops every top-level actor (and, transitively, their entire
// subtrees), the way the teacher's ActorSystem.Shutdown does for a daemon's
// deferred cleanup. stop() itself is synchronous all the way down the tree,
// so ctx only guards against starting the sweep at all once already
// expired; it is not consulted mid-sweep.
func (s *System) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, c := range s.childrenSnapshot() {
		c.stop()
	}
	return nil
}

type duplicateChildError struct{ name string }

func (e *duplicateChildError) Error() string {
	return "actor: duplicate child name \"" + e.name + "\""
}

func (e *duplicateChildError) Unwrap() error { return ErrDuplicateChild }
