package bucket

import (
	"fmt"

	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every bucket in the buffer pool",
	RunE:  runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	hctx, err := LoadContext()
	if err != nil {
		return err
	}

	admin, ok := hctx.Store.(blobstore.BucketAdmin)
	if !ok {
		return fmt.Errorf("configured blob store does not support bucket administration")
	}

	for _, id := range admin.ListBuckets() {
		path, _ := admin.BucketPath(id)
		fmt.Printf("%d\t%s\n", id, path)
	}
	return nil
}
