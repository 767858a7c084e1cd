// Command actorctl runs small, self-contained scenarios against the
// actorcore engine, mirroring the way cmd/substrate's CLI exercises the
// teacher's own subsystems one subcommand at a time.
package main

import (
	"fmt"
	"os"

	"github.com/tomjolt/actorcore/cmd/actorctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
