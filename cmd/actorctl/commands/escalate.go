package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"

	"github.com/tomjolt/actorcore/internal/baselib/actor"
)

var escalateCmd = &cobra.Command{
	Use:   "escalate",
	Short: "Crash a child actor and watch the default policy escalate the fault to its parent",
	RunE:  runEscalate,
}

func init() {
	rootCmd.AddCommand(escalateCmd)
}

func runEscalate(*cobra.Command, []string) error {
	system := actor.NewActorSystem()
	defer func() { _ = system.Shutdown(context.Background()) }()

	escalated := make(chan struct {
		msg   any
		err   error
		child *actor.Ref
	}, 1)

	parentOnCrash := func(msg any, err error, _ *actor.Context, child *actor.Ref) actor.Decision {
		if child != nil {
			escalated <- struct {
				msg   any
				err   error
				child *actor.Ref
			}{msg, err, child}
		}
		return actor.Resume
	}

	parentBehavior := func(state any, _ any, _ *actor.Context) fn.Result[any] {
		return fn.Ok[any](state)
	}
	parentRef := actor.Spawn(system.RootRef(), parentBehavior, actor.Props{
		Name:    "parent",
		OnCrash: parentOnCrash,
	})

	childBehavior := func(state any, msg any, _ *actor.Context) fn.Result[any] {
		if msg == "boom" {
			return fn.Err[any](errors.New("simulated crash"))
		}
		return fn.Ok[any](state)
	}
	childRef := actor.Spawn(parentRef, childBehavior, actor.Props{Name: "child"})

	actor.Dispatch(childRef, "boom")

	select {
	case ev := <-escalated:
		fmt.Printf(
			"child's default policy (escalate) propagated the fault: child=%s err=%v\n",
			ev.child.Path(), ev.err,
		)
	case <-time.After(2 * time.Second):
		fmt.Println("timed out waiting for escalation")
	}
	return nil
}
