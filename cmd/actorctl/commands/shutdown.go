package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"

	"github.com/tomjolt/actorcore/internal/baselib/actor"
)

var shutdownCmd = &cobra.Command{
	Use:   "idle-shutdown",
	Short: "Spawn an actor with a short idle timeout and watch it terminate itself",
	RunE:  runIdleShutdown,
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
}

func runIdleShutdown(*cobra.Command, []string) error {
	system := actor.NewActorSystem()
	defer func() { _ = system.Shutdown(context.Background()) }()

	done := make(chan struct{})
	noop := func(state any, _ any, _ *actor.Context) fn.Result[any] {
		return fn.Ok[any](state)
	}

	ref := actor.Spawn(system.RootRef(), noop, actor.Props{
		Name:          "idle-demo",
		ShutdownAfter: fn.Some(50 * time.Millisecond),
		AfterStop: func(any, *actor.Context) {
			close(done)
		},
	})
	actor.Dispatch(ref, struct{}{})

	select {
	case <-done:
		fmt.Println("actor stopped itself after going idle")
	case <-time.After(2 * time.Second):
		fmt.Println("timed out waiting for idle shutdown")
	}
	return nil
}
