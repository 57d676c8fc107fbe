package bucket

import (
	"fmt"

	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/hermesio/hermes/pkg/scope"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path> <blob-name>",
	Short: "Destroy a single blob within a bucket",
	Long: `Destroy a single cached page of a bucket by its decimal page-index
blob name, without flushing it to the backend first. Any data not already
destaged is lost.`,
	Args: cobra.ExactArgs(2),
	RunE: runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	hctx, err := LoadContext()
	if err != nil {
		return err
	}

	admin, ok := hctx.Store.(blobstore.BucketAdmin)
	if !ok {
		return fmt.Errorf("configured blob store does not support bucket administration")
	}

	path := scope.Canonicalize(args[0])
	blobName := args[1]

	id, found := FindBucketByPath(admin, path)
	if !found {
		return fmt.Errorf("no bucket for path %q", path)
	}

	if err := admin.DestroyBlob(id, blobName); err != nil {
		return err
	}
	fmt.Printf("destroyed blob %s in bucket %d (%s)\n", blobName, id, path)
	return nil
}
