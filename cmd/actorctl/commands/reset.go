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

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Crash a child under a reset policy and observe its state reinitialize",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

type readStateMsg chan any

func runReset(*cobra.Command, []string) error {
	system := actor.NewActorSystem()
	defer func() { _ = system.Shutdown(context.Background()) }()

	resetCount := 0
	initFn := func(*actor.Context) fn.Result[any] {
		resetCount++
		if resetCount == 1 {
			return fn.Ok[any](0)
		}
		return fn.Ok[any](42)
	}

	childBehavior := func(state any, msg any, _ *actor.Context) fn.Result[any] {
		switch m := msg.(type) {
		case readStateMsg:
			m <- state
			return fn.Ok[any](state)
		case string:
			if m == "boom" {
				return fn.Err[any](errors.New("simulated crash"))
			}
		}
		return fn.Ok[any](state)
	}

	parentOnCrash := func(_ any, _ error, _ *actor.Context, child *actor.Ref) actor.Decision {
		if child != nil {
			return actor.Reset
		}
		return actor.Escalate
	}
	parentBehavior := func(state any, _ any, _ *actor.Context) fn.Result[any] {
		return fn.Ok[any](state)
	}

	parentRef := actor.Spawn(system.RootRef(), parentBehavior, actor.Props{
		Name:    "parent",
		OnCrash: parentOnCrash,
	})
	childRef := actor.Spawn(parentRef, childBehavior, actor.Props{
		Name:             "child",
		InitialStateFunc: initFn,
	})

	actor.Dispatch(childRef, "boom")

	got := make(readStateMsg, 1)
	deadline := time.After(2 * time.Second)
	for {
		actor.Dispatch(childRef, got)
		select {
		case v := <-got:
			if v == 42 {
				fmt.Printf("child state after reset: %v\n", v)
				return nil
			}
		case <-deadline:
			fmt.Println("timed out waiting for reset to complete")
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
}
