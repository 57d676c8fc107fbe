package flusher

import (
	"context"
	"testing"
	"time"

	"github.com/hermesio/hermes/pkg/backend"
	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	files map[string][]byte
}

func newFakeBackend() *fakeBackend { return &fakeBackend{files: make(map[string][]byte)} }

var _ backend.Client = (*fakeBackend)(nil)

type fakeHandle struct{}

func (fakeHandle) isHandle() {}

func (b *fakeBackend) Open(context.Context, string, int, uint32) (backend.Handle, backend.Stat, error) {
	return fakeHandle{}, backend.Stat{}, nil
}

func (b *fakeBackend) Close(context.Context, backend.Handle) error { return nil }

func (b *fakeBackend) Read(_ context.Context, path string, offset int64, out []byte) (int, error) {
	data := b.files[path]
	if offset >= int64(len(data)) {
		return 0, nil
	}
	return copy(out, data[offset:]), nil
}

func (b *fakeBackend) Write(_ context.Context, path string, offset int64, data []byte) (int, error) {
	existing := b.files[path]
	end := offset + int64(len(data))
	if int64(len(existing)) < end {
		grown := make([]byte, end)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[offset:], data)
	b.files[path] = existing
	return len(data), nil
}

func (b *fakeBackend) Stat(context.Context, string) (backend.Stat, error) { return backend.Stat{}, nil }
func (b *fakeBackend) Sync(context.Context, string) error                 { return nil }
func (b *fakeBackend) Unlink(context.Context, string) error               { return nil }
func (b *fakeBackend) Exists(context.Context, string) (bool, error)       { return true, nil }
func (b *fakeBackend) Size(context.Context, string) (int64, error)        { return 0, nil }

type fakeExclusion struct{ added, removed []string }

func (f *fakeExclusion) AddFlushExclusion(path string)    { f.added = append(f.added, path) }
func (f *fakeExclusion) RemoveFlushExclusion(path string) { f.removed = append(f.removed, path) }

const pageSize = 16

func TestSyncFlusher_FlushesInAscendingPageOrder(t *testing.T) {
	store := blobstore.NewMemStore(0)
	backend := newFakeBackend()
	excl := &fakeExclusion{}
	f := NewSyncFlusher(store, backend, excl, pageSize)

	bid := store.GetOrCreateBucket("/f")
	require.NoError(t, store.BlobPut(bid, "2", []byte("BBBBBBBBBBBBBBBB")))
	require.NoError(t, store.BlobPut(bid, "1", []byte("AAAAAAAAAAAAAAAA")))

	require.NoError(t, f.FlushBucket(context.Background(), bid, "/f"))

	assert.Equal(t, []byte("AAAAAAAAAAAAAAAA"), backend.files["/f"][0:16])
	assert.Equal(t, []byte("BBBBBBBBBBBBBBBB"), backend.files["/f"][16:32])
	assert.Empty(t, store.DirtyBlobNames(bid))

	assert.Equal(t, []string{"/f"}, excl.added)
	assert.Equal(t, []string{"/f"}, excl.removed)
}

func TestSyncFlusher_NoDirtyBlobs_NoOp(t *testing.T) {
	store := blobstore.NewMemStore(0)
	backend := newFakeBackend()
	f := NewSyncFlusher(store, backend, &fakeExclusion{}, pageSize)
	bid := store.GetOrCreateBucket("/f")

	require.NoError(t, f.FlushBucket(context.Background(), bid, "/f"))
	assert.Empty(t, backend.files["/f"])
}

func TestSyncFlusher_Close_NoOp(t *testing.T) {
	f := NewSyncFlusher(blobstore.NewMemStore(0), newFakeBackend(), &fakeExclusion{}, pageSize)
	assert.NoError(t, f.Close())
}

func TestAsyncFlusher_NotifyThenFlushBucketWaitsForDrain(t *testing.T) {
	store := blobstore.NewMemStore(0)
	backend := newFakeBackend()
	sync := NewSyncFlusher(store, backend, &fakeExclusion{}, pageSize)
	af := NewAsyncFlusher(sync)

	bid := store.GetOrCreateBucket("/f")
	require.NoError(t, store.BlobPut(bid, "1", []byte("AAAAAAAAAAAAAAAA")))

	af.Notify(context.Background(), bid, "/f")

	require.NoError(t, af.FlushBucket(context.Background(), bid, "/f"))
	assert.Equal(t, []byte("AAAAAAAAAAAAAAAA"), backend.files["/f"][0:16])
	assert.Empty(t, store.DirtyBlobNames(bid))
}

func TestAsyncFlusher_CloseWaitsForPendingWork(t *testing.T) {
	store := blobstore.NewMemStore(0)
	backend := newFakeBackend()
	sync := NewSyncFlusher(store, backend, &fakeExclusion{}, pageSize)
	af := NewAsyncFlusher(sync)

	bid := store.GetOrCreateBucket("/f")
	require.NoError(t, store.BlobPut(bid, "1", []byte("AAAAAAAAAAAAAAAA")))

	af.Notify(context.Background(), bid, "/f")
	require.NoError(t, af.Close())

	assert.Equal(t, []byte("AAAAAAAAAAAAAAAA"), backend.files["/f"][0:16])
}

func TestAsyncFlusher_NotifyAfterCloseIsIgnored(t *testing.T) {
	store := blobstore.NewMemStore(0)
	backend := newFakeBackend()
	sync := NewSyncFlusher(store, backend, &fakeExclusion{}, pageSize)
	af := NewAsyncFlusher(sync)
	require.NoError(t, af.Close())

	bid := store.GetOrCreateBucket("/f")
	require.NoError(t, store.BlobPut(bid, "1", []byte("AAAAAAAAAAAAAAAA")))
	af.Notify(context.Background(), bid, "/f")

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, backend.files["/f"])
}
