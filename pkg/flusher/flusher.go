// Package flusher implements the destage pipeline: writing dirty blobs
// back to the backing file, either synchronously on close/sync or in the
// background as writes arrive.
package flusher

import (
	"context"
	"strconv"
	"sync"

	"github.com/hermesio/hermes/internal/logger"
	"github.com/hermesio/hermes/pkg/backend"
	"github.com/hermesio/hermes/pkg/blobstore"
)

// FlushExclusionSet is the narrow slice of pkg/scope.Filter the flusher
// needs to keep a flush from racing a gap read on the same path.
type FlushExclusionSet interface {
	AddFlushExclusion(path string)
	RemoveFlushExclusion(path string)
}

// Flusher destages a bucket's dirty blobs to its backing file.
type Flusher interface {
	// FlushBucket writes every dirty blob of bucketID, backed by path, to
	// the backend in ascending page-index order, then clears the dirty set.
	FlushBucket(ctx context.Context, bucketID blobstore.BucketID, path string) error

	// Close awaits any pending background work before returning.
	Close() error
}

// SyncFlusher writes dirty blobs directly on the caller's goroutine; this
// is the synchronous, default destage mode.
type SyncFlusher struct {
	store     blobstore.Store
	backend   backend.Client
	exclusion FlushExclusionSet
	pageSize  int64
}

// NewSyncFlusher constructs a SyncFlusher over store and backend.
func NewSyncFlusher(store blobstore.Store, client backend.Client, exclusion FlushExclusionSet, pageSize int64) *SyncFlusher {
	return &SyncFlusher{store: store, backend: client, exclusion: exclusion, pageSize: pageSize}
}

var _ Flusher = (*SyncFlusher)(nil)

// FlushBucket implements Flusher.
func (f *SyncFlusher) FlushBucket(ctx context.Context, bucketID blobstore.BucketID, path string) error {
	f.exclusion.AddFlushExclusion(path)
	defer f.exclusion.RemoveFlushExclusion(path)

	names := f.store.DirtyBlobNames(bucketID)
	for _, name := range names {
		data, ok := f.store.BlobGet(bucketID, name)
		if !ok {
			continue
		}

		offset, err := blobOffset(name, f.pageSize)
		if err != nil {
			return err
		}

		if _, err := f.backend.Write(ctx, path, offset, data); err != nil {
			// Errors are surfaced to the caller; partial progress remains
			// visible -- blobs already written stay clean, the rest stay
			// dirty for the next flush.
			return err
		}
		f.store.ClearDirty(bucketID, name)
		logger.Debug("flushed blob", logger.BucketID(uint64(bucketID)), logger.BlobName(name))
	}

	return nil
}

// Close is a no-op for SyncFlusher: there is no background work to await.
func (f *SyncFlusher) Close() error { return nil }

// blobOffset recovers a blob's absolute backing-file offset from its
// decimal page-index name: (page_index-1)*pageSize.
func blobOffset(blobName string, pageSize int64) (int64, error) {
	pageIndex, err := strconv.ParseInt(blobName, 10, 64)
	if err != nil {
		return 0, err
	}
	return (pageIndex - 1) * pageSize, nil
}

// AsyncFlusher wraps a SyncFlusher with a background worker that drains a
// per-bucket queue, notified on every write. Explicit FlushBucket calls
// wait for that bucket's queued work to drain before performing one more
// synchronous pass, so an explicit flush always waits for the drain to
// complete.
type AsyncFlusher struct {
	syncFlusher *SyncFlusher

	mu      sync.Mutex
	queue   map[bucketPath]chan struct{}
	wg      sync.WaitGroup
	closing bool
}

type bucketPath struct {
	bucketID blobstore.BucketID
	path     string
}

// NewAsyncFlusher constructs an AsyncFlusher over a SyncFlusher.
func NewAsyncFlusher(syncFlusher *SyncFlusher) *AsyncFlusher {
	return &AsyncFlusher{syncFlusher: syncFlusher, queue: make(map[bucketPath]chan struct{})}
}

func (f *AsyncFlusher) key(bucketID blobstore.BucketID, path string) bucketPath {
	return bucketPath{bucketID: bucketID, path: path}
}

// Notify signals that bucketID (backed by path) has new dirty data. It
// schedules a background drain if one is not already running for this
// bucket.
func (f *AsyncFlusher) Notify(ctx context.Context, bucketID blobstore.BucketID, path string) {
	f.mu.Lock()
	if f.closing {
		f.mu.Unlock()
		return
	}
	k := f.key(bucketID, path)
	if _, running := f.queue[k]; running {
		f.mu.Unlock()
		return
	}
	done := make(chan struct{})
	f.queue[k] = done
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer close(done)
		if err := f.syncFlusher.FlushBucket(ctx, bucketID, path); err != nil {
			logger.Warn("background flush failed", logger.Err(err), logger.BucketID(uint64(bucketID)))
		}
		f.mu.Lock()
		delete(f.queue, k)
		f.mu.Unlock()
	}()
}

// FlushBucket waits for any in-flight background drain of bucketID to
// finish, then runs one more synchronous pass to pick up anything written
// after the drain started.
func (f *AsyncFlusher) FlushBucket(ctx context.Context, bucketID blobstore.BucketID, path string) error {
	f.mu.Lock()
	done := f.queue[f.key(bucketID, path)]
	f.mu.Unlock()

	if done != nil {
		<-done
	}
	return f.syncFlusher.FlushBucket(ctx, bucketID, path)
}

// Close waits for every in-flight background drain to finish. The close
// protocol always waits before destroying blobs.
func (f *AsyncFlusher) Close() error {
	f.mu.Lock()
	f.closing = true
	f.mu.Unlock()
	f.wg.Wait()
	return nil
}

var _ Flusher = (*AsyncFlusher)(nil)
