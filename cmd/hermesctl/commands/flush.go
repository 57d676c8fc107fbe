package commands

import (
	"context"
	"fmt"

	"github.com/hermesio/hermes/cmd/hermesctl/commands/bucket"
	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/hermesio/hermes/pkg/scope"
	"github.com/spf13/cobra"
)

var flushCmd = &cobra.Command{
	Use:   "flush <path>",
	Short: "Destage a tracked path's dirty blobs to its backing file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlush,
}

func runFlush(cmd *cobra.Command, args []string) error {
	hctx, err := loadContext()
	if err != nil {
		return err
	}

	admin, ok := hctx.Store.(blobstore.BucketAdmin)
	if !ok {
		return fmt.Errorf("configured blob store does not support bucket administration")
	}

	path := scope.Canonicalize(args[0])

	bucketID, found := bucket.FindBucketByPath(admin, path)
	if !found {
		return fmt.Errorf("no bucket for path %q", path)
	}

	if err := hctx.Flusher.FlushBucket(context.Background(), bucketID, path); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}
	fmt.Printf("flushed bucket %d (%s)\n", bucketID, path)
	return nil
}
