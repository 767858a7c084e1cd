package actor

import "strings"

// Path is a hierarchical name identifying an actor in the tree (spec.md
// §3, §6). It is immutable once built: spawn extends the parent's path by
// one segment and never mutates an existing Path value.
type Path struct {
	segments []string
}

// RootPath is the path of the actor-system root.
var RootPath = Path{segments: nil}

// Child returns a new Path extending p by one segment.
func (p Path) Child(name string) Path {
	segs := make([]string, len(p.segments)+1)
	copy(segs, p.segments)
	segs[len(segs)-1] = name
	return Path{segments: segs}
}

// String renders the path as a "/"-joined string, e.g. "/supervisor/worker-3".
func (p Path) String() string {
	return "/" + strings.Join(p.segments, "/")
}

// Depth returns the number of segments in the path (0 for the root).
func (p Path) Depth() int { return len(p.segments) }

// Ref is an opaque, addressable handle for an actor (spec.md §3, §6). It is
// resolvable to a live actor only through the system map guard
// (applyOrThrowIfStopped in guard.go); Ref itself carries no behavior.
// Out of the engine's primary scope per spec.md §1, but required as a
// concrete type for spawn/dispatch/query to hand back to callers.
type Ref struct {
	id     string
	path   Path
	name   string
	system *System
}

// ID returns the opaque identifier the system map uses to resolve this
// reference to a live actor.
func (r *Ref) ID() string { return r.id }

// Path returns the hierarchical name of the actor this reference addresses.
func (r *Ref) Path() Path { return r.path }

// Name returns the actor's name (the final path segment).
func (r *Ref) Name() string { return r.name }

// Reply resolves the query this reference was minted for with a success
// value (spec.md §4.6.6). A no-op if the query already settled (by a prior
// reply or a timeout).
func (r *Ref) Reply(value any) {
	r.system.resolveTempReference(r.id, value, nil)
}

// Fail resolves the query this reference was minted for with a failure. A
// no-op if the query already settled.
func (r *Ref) Fail(err error) {
	r.system.resolveTempReference(r.id, nil, err)
}
