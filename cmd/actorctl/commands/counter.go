package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"

	"github.com/tomjolt/actorcore/internal/baselib/actor"
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Dispatch a few increments to a counter actor, then query its total",
	RunE:  runCounter,
}

func init() {
	rootCmd.AddCommand(counterCmd)
}

type getTotalMsg struct{ reply *actor.Ref }

func counterBehavior(state any, msg any, _ *actor.Context) fn.Result[any] {
	total, _ := state.(int)
	switch m := msg.(type) {
	case int:
		return fn.Ok[any](total + m)
	case getTotalMsg:
		m.reply.Reply(total)
		return fn.Ok[any](total)
	default:
		return fn.Err[any](fmt.Errorf("counter: unrecognized message %T", msg))
	}
}

func runCounter(*cobra.Command, []string) error {
	system := actor.NewActorSystem()
	defer func() { _ = system.Shutdown(context.Background()) }()

	ref := actor.Spawn(system.RootRef(), counterBehavior, actor.Props{
		Name:         "counter",
		InitialState: 0,
	})

	actor.Dispatch(ref, 1)
	actor.Dispatch(ref, 2)
	actor.Dispatch(ref, 3)

	res := actor.Query(ref, func(reply *actor.Ref) any {
		return getTotalMsg{reply: reply}
	}, fn.Some(100*time.Millisecond)).Await(context.Background())

	var total any
	res.WhenOk(func(v any) { total = v })
	res.WhenErr(func(err error) { fmt.Printf("query failed: %v\n", err) })

	fmt.Printf("counter total: %v\n", total)
	return nil
}
