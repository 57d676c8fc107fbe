package blobstore

import (
	"testing"

	"github.com/hermesio/hermes/pkg/herrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateBucket_Idempotent(t *testing.T) {
	s := NewMemStore(0)

	id1 := s.GetOrCreateBucket("/a/b.txt")
	id2 := s.GetOrCreateBucket("/a/b.txt")
	assert.Equal(t, id1, id2)

	id3 := s.GetOrCreateBucket("/a/c.txt")
	assert.NotEqual(t, id1, id3)
}

func TestBlobPutGet(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")

	assert.False(t, s.BucketContainsBlob(id, "1"))

	require.NoError(t, s.BlobPut(id, "1", []byte("hello")))
	assert.True(t, s.BucketContainsBlob(id, "1"))

	data, ok := s.BlobGet(id, "1")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, int64(5), s.BlobGetSize(id, "1"))

	_, ok = s.BlobGet(id, "2")
	assert.False(t, ok)
	assert.Equal(t, int64(0), s.BlobGetSize(id, "2"))
}

func TestBlobPut_ReplacesAtomically(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")

	require.NoError(t, s.BlobPut(id, "1", []byte("aaaaa")))
	require.NoError(t, s.BlobPut(id, "1", []byte("bb")))

	data, ok := s.BlobGet(id, "1")
	require.True(t, ok)
	assert.Equal(t, []byte("bb"), data)
}

func TestBlobGet_ReturnsCopy(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")
	require.NoError(t, s.BlobPut(id, "1", []byte("hello")))

	data, _ := s.BlobGet(id, "1")
	data[0] = 'X'

	fresh, _ := s.BlobGet(id, "1")
	assert.Equal(t, []byte("hello"), fresh)
}

func TestBlobDelete(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")
	require.NoError(t, s.BlobPut(id, "1", []byte("hello")))

	s.BlobDelete(id, "1")
	assert.False(t, s.BucketContainsBlob(id, "1"))
	assert.Equal(t, int64(0), s.BucketTotalBlobSize(id))

	// deleting an absent blob is a no-op
	s.BlobDelete(id, "999")
}

func TestBucketTotalBlobSize(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")
	require.NoError(t, s.BlobPut(id, "1", make([]byte, 100)))
	require.NoError(t, s.BlobPut(id, "2", make([]byte, 50)))

	assert.Equal(t, int64(150), s.BucketTotalBlobSize(id))
}

func TestBlobPut_CapacityFailure(t *testing.T) {
	s := NewMemStore(10)
	id := s.GetOrCreateBucket("/a/b.txt")

	require.NoError(t, s.BlobPut(id, "1", make([]byte, 8)))

	err := s.BlobPut(id, "2", make([]byte, 8))
	require.Error(t, err)
	assert.True(t, herrors.Is(err, herrors.ErrCapacity))

	// replacing an existing blob within budget still succeeds
	require.NoError(t, s.BlobPut(id, "1", make([]byte, 2)))
}

func TestBucketDestroy(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")
	require.NoError(t, s.BlobPut(id, "1", []byte("hello")))

	require.NoError(t, s.BucketDestroy(id))
	assert.False(t, s.BucketContainsBlob(id, "1"))

	// path is free again
	id2 := s.GetOrCreateBucket("/a/b.txt")
	assert.NotEqual(t, id, id2)

	err := s.BucketDestroy(id)
	require.Error(t, err)
	assert.True(t, herrors.Is(err, herrors.ErrNotFound))
}

func TestBucketRename(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")
	other := s.GetOrCreateBucket("/a/c.txt")

	err := s.BucketRename(id, "/a/c.txt")
	require.Error(t, err)
	assert.True(t, herrors.Is(err, herrors.ErrRenameConflict))

	require.NoError(t, s.BucketRename(id, "/a/renamed.txt"))
	assert.Equal(t, id, s.GetOrCreateBucket("/a/renamed.txt"))
	assert.Equal(t, other, s.GetOrCreateBucket("/a/c.txt"))
}

func TestDirtyBlobNames_NumericOrder(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")

	require.NoError(t, s.BlobPut(id, "10", []byte("x")))
	require.NoError(t, s.BlobPut(id, "2", []byte("x")))
	require.NoError(t, s.BlobPut(id, "1", []byte("x")))

	// numeric, not lexical, ordering: 1, 2, 10 -- never 1, 10, 2
	assert.Equal(t, []string{"1", "2", "10"}, s.DirtyBlobNames(id))
}

func TestClearDirty(t *testing.T) {
	s := NewMemStore(0)
	id := s.GetOrCreateBucket("/a/b.txt")
	require.NoError(t, s.BlobPut(id, "1", []byte("x")))

	s.ClearDirty(id, "1")
	assert.Empty(t, s.DirtyBlobNames(id))

	// clearing again is a no-op
	s.ClearDirty(id, "1")
}
