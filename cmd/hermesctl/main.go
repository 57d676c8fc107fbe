// Command hermesctl is the Hermes operator CLI: bucket inspection and
// explicit flush control against a configured mount point.
package main

import (
	"fmt"
	"os"

	"github.com/hermesio/hermes/cmd/hermesctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
