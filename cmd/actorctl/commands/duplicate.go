package commands

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"

	"github.com/tomjolt/actorcore/internal/baselib/actor"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate-name",
	Short: "Spawn the same child name twice and observe the usage-error panic",
	RunE:  runDuplicate,
}

func init() {
	rootCmd.AddCommand(duplicateCmd)
}

func runDuplicate(*cobra.Command, []string) (err error) {
	system := actor.NewActorSystem()
	defer func() { _ = system.Shutdown(context.Background()) }()

	noop := func(state any, _ any, _ *actor.Context) fn.Result[any] {
		return fn.Ok[any](state)
	}

	actor.Spawn(system.RootRef(), noop, actor.Props{Name: "worker"})

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("spawn rejected as expected: %v\n", r)
			err = nil
		}
	}()
	actor.Spawn(system.RootRef(), noop, actor.Props{Name: "worker"})

	fmt.Println("unexpected: duplicate spawn did not panic")
	return nil
}
