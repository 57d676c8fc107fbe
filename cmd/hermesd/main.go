// Command hermesd runs the Hermes buffering daemon: it loads configuration,
// wires a hermes.Context, and keeps it alive until told to shut down.
package main

import (
	"fmt"
	"os"

	"github.com/hermesio/hermes/cmd/hermesd/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
