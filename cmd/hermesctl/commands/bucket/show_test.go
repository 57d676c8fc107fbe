package bucket

import (
	"testing"

	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	paths map[blobstore.BucketID]string
}

func (f fakeAdmin) ListBuckets() []blobstore.BucketID {
	ids := make([]blobstore.BucketID, 0, len(f.paths))
	for id := range f.paths {
		ids = append(ids, id)
	}
	return ids
}

func (f fakeAdmin) BucketPath(id blobstore.BucketID) (string, bool) {
	p, ok := f.paths[id]
	return p, ok
}

func (f fakeAdmin) BlobNames(blobstore.BucketID) []string { return nil }

func (f fakeAdmin) GetBlobId(blobstore.BucketID, string) (string, bool) { return "", false }

func (f fakeAdmin) RenameBlob(blobstore.BucketID, string, string) error { return nil }

func (f fakeAdmin) DestroyBlob(blobstore.BucketID, string) error { return nil }

func TestFindBucketByPath(t *testing.T) {
	admin := fakeAdmin{paths: map[blobstore.BucketID]string{
		1: "/data/a.bin",
		2: "/data/b.bin",
	}}

	id, found := FindBucketByPath(admin, "/data/b.bin")
	require.True(t, found)
	require.Equal(t, blobstore.BucketID(2), id)

	_, found = FindBucketByPath(admin, "/data/missing.bin")
	require.False(t, found)
}
