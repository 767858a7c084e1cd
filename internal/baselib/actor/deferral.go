package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future represents the result of an asynchronous computation: a behavior
// invocation, a state-initialization call, or a query's reply. It mirrors
// the teacher's ActorRef.Ask return type but is untyped (fn.Result[any])
// since actor state and messages are opaque values in this runtime, not
// statically typed per actor the way the teacher's generic ActorRef is.
type Future interface {
	// Await blocks until the result is available or ctx is cancelled.
	Await(ctx context.Context) fn.Result[any]

	// OnComplete registers fn to run when the result is ready. If ctx is
	// cancelled before settlement, fn runs with a context-error result.
	// Callbacks registered after settlement run (synchronously) at
	// registration time.
	OnComplete(ctx context.Context, fn func(fn.Result[any]))
}

// Deferral is a single-assignment promise: Resolve/Reject settle it exactly
// once, and any further settle calls are no-ops. It is the Go stand-in for
// spec component C2, built the way the teacher builds Promise/Future pairs
// (interface.go) but collapsed into one concrete type since actorcore has no
// need to keep the producer and consumer sides separate.
type Deferral struct {
	mu        sync.Mutex
	settled   bool
	result    fn.Result[any]
	done      chan struct{}
	observers []func(fn.Result[any])
}

// NewDeferral creates a pending Deferral.
func NewDeferral() *Deferral {
	return &Deferral{done: make(chan struct{})}
}

// Resolve settles the deferral with a success value. A no-op if already
// settled.
func (d *Deferral) Resolve(v any) {
	d.settle(fn.Ok(v))
}

// Reject settles the deferral with a failure. A no-op if already settled.
func (d *Deferral) Reject(err error) {
	d.settle(fn.Err[any](err))
}

func (d *Deferral) settle(res fn.Result[any]) {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return
	}
	d.settled = true
	d.result = res
	observers := d.observers
	d.observers = nil
	close(d.done)
	d.mu.Unlock()

	for _, obs := range observers {
		obs(res)
	}
}

// Future returns the read-only, awaitable view of this deferral.
func (d *Deferral) Future() Future {
	return (*future)(d)
}

// IsSettled reports whether the deferral has resolved or rejected.
func (d *Deferral) IsSettled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

type future Deferral

func (f *future) Await(ctx context.Context) fn.Result[any] {
	d := (*Deferral)(f)
	select {
	case <-d.done:
		d.mu.Lock()
		res := d.result
		d.mu.Unlock()
		return res
	case <-ctx.Done():
		return fn.Err[any](ctx.Err())
	}
}

func (f *future) OnComplete(ctx context.Context, cb func(fn.Result[any])) {
	d := (*Deferral)(f)

	d.mu.Lock()
	if d.settled {
		res := d.result
		d.mu.Unlock()
		cb(res)
		return
	}
	d.observers = append(d.observers, cb)
	d.mu.Unlock()

	go func() {
		select {
		case <-d.done:
		case <-ctx.Done():
			d.mu.Lock()
			settled := d.settled
			d.mu.Unlock()
			if !settled {
				cb(fn.Err[any](ctx.Err()))
			}
		}
	}()
}
