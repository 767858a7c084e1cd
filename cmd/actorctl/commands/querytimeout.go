package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"

	"github.com/tomjolt/actorcore/internal/baselib/actor"
)

var queryTimeoutCmd = &cobra.Command{
	Use:   "query-timeout",
	Short: "Query an actor that never replies and observe the timeout rejection",
	RunE:  runQueryTimeout,
}

func init() {
	rootCmd.AddCommand(queryTimeoutCmd)
}

func runQueryTimeout(*cobra.Command, []string) error {
	system := actor.NewActorSystem()
	defer func() { _ = system.Shutdown(context.Background()) }()

	silent := func(state any, _ any, _ *actor.Context) fn.Result[any] {
		return fn.Ok[any](state)
	}
	ref := actor.Spawn(system.RootRef(), silent, actor.Props{Name: "silent"})

	res := actor.Query(ref, func(reply *actor.Ref) any {
		return getTotalMsg{reply: reply}
	}, fn.Some(10*time.Millisecond)).Await(context.Background())

	res.WhenErr(func(err error) {
		fmt.Printf("query rejected as expected: %v\n", err)
	})
	res.WhenOk(func(any) {
		fmt.Println("unexpected reply — the silent actor should never answer")
	})
	return nil
}
