package bucket

import (
	"fmt"

	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/hermesio/hermes/pkg/scope"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show a bucket's blobs",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	hctx, err := LoadContext()
	if err != nil {
		return err
	}

	admin, ok := hctx.Store.(blobstore.BucketAdmin)
	if !ok {
		return fmt.Errorf("configured blob store does not support bucket administration")
	}

	path := scope.Canonicalize(args[0])
	id, found := FindBucketByPath(admin, path)
	if !found {
		return fmt.Errorf("no bucket for path %q", path)
	}

	fmt.Printf("bucket %d\t%s\n", id, path)
	for _, name := range admin.BlobNames(id) {
		size := hctx.Store.BlobGetSize(id, name)
		fmt.Printf("  blob %s\t%d bytes\n", name, size)
	}
	return nil
}

// FindBucketByPath resolves path to its bucket id, since BucketAdmin only
// indexes buckets by id.
func FindBucketByPath(admin blobstore.BucketAdmin, path string) (blobstore.BucketID, bool) {
	for _, id := range admin.ListBuckets() {
		if p, ok := admin.BucketPath(id); ok && p == path {
			return id, true
		}
	}
	return 0, false
}
