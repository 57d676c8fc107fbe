// Package bucket implements bucket/blob inspection commands for hermesctl,
// operating on the named-bucket surface exposed through
// pkg/blobstore.BucketAdmin.
package bucket

import (
	"github.com/hermesio/hermes/pkg/hermes"
	"github.com/spf13/cobra"
)

// LoadContext is injected by the root command; it wires a hermes.Context
// from the resolved configuration.
var LoadContext func() (*hermes.Context, error)

// Cmd is the parent command for bucket management.
var Cmd = &cobra.Command{
	Use:   "bucket",
	Short: "Inspect and manage buckets",
	Long: `Manage buckets in the configured Hermes buffer pool.

Examples:
  # List every bucket
  hermesctl bucket ls

  # Show a bucket's blobs
  hermesctl bucket show /data/input.bin

  # Destroy a single blob (page) within a bucket
  hermesctl bucket rm /data/input.bin 3`,
}

func init() {
	Cmd.AddCommand(lsCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(rmCmd)
}
