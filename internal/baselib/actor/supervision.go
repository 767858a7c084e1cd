package actor

// Decision is the closed set of nine recovery actions a supervision policy
// may return (spec.md §4.5, component C5). It is a pure mapping from
// (message, error, context, child?) to one of these tags; any value outside
// the set is treated identically to Escalate, which is also the zero value
// (spec.md testable property 9).
type Decision int

const (
	// Escalate delegates the fault to the parent unchanged. This is the
	// zero value so an unrecognized or default-constructed Decision
	// escalates, matching spec.md §4.5's closing row.
	Escalate Decision = iota

	// Stop stops the faulting actor.
	Stop

	// StopAll stops the faulting actor and all of its peers (its
	// parent's other children).
	StopAll

	// StopChild stops the identified child. Requires a non-nil child.
	StopChild

	// StopAllChildren stops every child of the faulting actor.
	StopAllChildren

	// Resume continues processing — the faulting actor drains its next
	// mailbox message.
	Resume

	// Reset stops all of the faulting actor's children, reruns its state
	// initialization, then resumes.
	Reset

	// ResetAll resets every peer of the faulting actor.
	ResetAll

	// ResetChild resets the identified child. Requires a non-nil child.
	ResetChild

	// ResetAllChildren resets every child of the faulting actor.
	ResetAllChildren
)

// SupervisorFunc is the pure function a parent uses to decide the fate of a
// faulting child (or itself, for a fault raised in its own behavior or
// state initialization). msg is the message being processed when the fault
// occurred (nil for an initialization fault), err is the failure, ctx is the
// supervision context (a regular Context, see context.go), and child is the
// reference of the faulting child, or nil if the fault originated in the
// supervisor's own actor.
type SupervisorFunc func(msg any, err error, ctx *Context, child *Ref) Decision

// DefaultSupervisor is the library default: always escalate. spec.md §4.5:
// "The default policy is escalate."
func DefaultSupervisor(_ any, _ error, _ *Context, _ *Ref) Decision {
	return Escalate
}

// StatelessSupervisor is the fixed policy stateless actors use: always
// resume. spec.md §4.5: "Stateless actors use a fixed resume policy."
func StatelessSupervisor(_ any, _ error, _ *Context, _ *Ref) Decision {
	return Resume
}
