// Package commands implements the hermesctl CLI.
package commands

import (
	"github.com/hermesio/hermes/cmd/hermesctl/commands/bucket"
	"github.com/hermesio/hermes/pkg/config"
	"github.com/hermesio/hermes/pkg/hermes"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hermesctl",
	Short: "Hermes operator CLI",
	Long: `hermesctl inspects and manages buckets in a Hermes buffer pool:
listing buckets, showing a bucket's blobs, destroying individual blobs, and
triggering an explicit flush of a tracked path.

Use "hermesctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and executes it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/hermes/config.yaml)")

	rootCmd.AddCommand(bucket.Cmd)
	rootCmd.AddCommand(flushCmd)

	bucket.LoadContext = loadContext
}

// loadContext wires a hermes.Context from the configured mount points, the
// same way hermesd would at startup. hermesctl has no control-plane
// connection to a running daemon and no cross-process consistency
// guarantee to preserve, so it operates on a freshly wired, process-local
// view of the same configuration rather than attaching to hermesd's live
// state.
func loadContext() (*hermes.Context, error) {
	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return nil, err
	}
	return hermes.New(cfg)
}
