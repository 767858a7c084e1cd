package actor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// TestSpawnStatelessUsesFixedResumePolicyRegardlessOfProps asserts that
// SpawnStateless's fixed StatelessSupervisor (spec.md §4.5) wins over
// whatever props.OnCrash the caller supplies, and that a fault raised by
// the independently scheduled user function does not stop the actor.
func TestSpawnStatelessUsesFixedResumePolicyRegardlessOfProps(t *testing.T) {
	sys := NewActorSystem()

	var calls int32
	var customCrashCalled int32
	f := func(_ any, _ *Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("simulated fault")
		}
		return nil
	}

	ref := SpawnStateless(sys.RootRef(), f, Props{
		OnCrash: func(any, error, *Context, *Ref) Decision {
			atomic.AddInt32(&customCrashCalled, 1)
			return Stop
		},
	})

	Dispatch(ref, "boom")
	Dispatch(ref, "again")

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, time.Second, 5*time.Millisecond)

	require.Zero(t, atomic.LoadInt32(&customCrashCalled),
		"props.OnCrash must be overridden by StatelessSupervisor")
}

// TestRouteStatelessFaultRoutesToHandleFaultWhenResident exercises the
// resident half of spec.md §4.7's independently-scheduled fault path: the
// owning actor, looked up through its own self-reference, receives the
// fault through its ordinary handleFault/onCrash path.
func TestRouteStatelessFaultRoutesToHandleFaultWhenResident(t *testing.T) {
	sys := NewActorSystem()

	var mu sync.Mutex
	var gotErr error
	beh := func(state any, _ any, _ *Context) fn.Result[any] {
		return fn.Ok[any](state)
	}
	crash := func(_ any, err error, _ *Context, child *Ref) Decision {
		mu.Lock()
		gotErr = err
		mu.Unlock()
		require.Nil(t, child)
		return Resume
	}
	ref := Spawn(sys.RootRef(), beh, Props{OnCrash: crash})

	require.NotPanics(t, func() {
		routeStatelessFault(ref, "msg", errors.New("boom"))
	})

	mu.Lock()
	defer mu.Unlock()
	require.EqualError(t, gotErr, "boom")
}

// TestRouteStatelessFaultPanicsWhenActorNoLongerResident exercises the
// not-resident half: once the actor has stopped and been removed from the
// system map, there is no supervisor left to consult, so the fault is
// re-thrown to the host instead (spec.md §4.7, §9's open question).
func TestRouteStatelessFaultPanicsWhenActorNoLongerResident(t *testing.T) {
	sys := NewActorSystem()
	noop := func(state any, _ any, _ *Context) fn.Result[any] {
		return fn.Ok[any](state)
	}
	ref := Spawn(sys.RootRef(), noop, Props{Name: "gone"})
	StopRef(ref)

	require.Eventually(t, func() bool {
		_, ok := sys.resolveActor(ref)
		return !ok
	}, time.Second, 5*time.Millisecond)

	require.Panics(t, func() {
		routeStatelessFault(ref, "msg", errors.New("boom"))
	})
}
