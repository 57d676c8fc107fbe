package blobstore

import "github.com/hermesio/hermes/pkg/herrors"

// BucketAdmin is the named bucket/blob surface mirroring the upstream
// Bucket class: operations an operator tool runs against a bucket by
// name rather than by open-file handle.
type BucketAdmin interface {
	// ListBuckets returns every bucket currently known to the store.
	ListBuckets() []BucketID

	// BucketPath returns the canonical path a bucket was created for.
	BucketPath(bucketID BucketID) (path string, ok bool)

	// BlobNames returns every blob name in bucketID, in ascending numeric
	// page-index order (mirrors AdapterStat::CompareBlobs ordering).
	BlobNames(bucketID BucketID) []string

	// GetBlobId resolves blobName to a stable id within bucketID. Blob
	// names are already the stable identifier in this store, so
	// GetBlobId is a presence check that returns the name itself.
	GetBlobId(bucketID BucketID, blobName string) (blobID string, ok bool)

	// RenameBlob renames a blob within a bucket, preserving its content
	// and dirty state. Fails with herrors.ErrNotFound if blobName does not
	// exist, or herrors.ErrRenameConflict if newBlobName is already taken.
	RenameBlob(bucketID BucketID, blobName, newBlobName string) error

	// DestroyBlob removes a single named blob, failing with
	// herrors.ErrNotFound if it does not exist (unlike BlobDelete, which
	// is a silent no-op for the I/O engine's own bookkeeping use).
	DestroyBlob(bucketID BucketID, blobName string) error
}

func (s *MemStore) ListBuckets() []BucketID {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	ids := make([]BucketID, 0, len(s.buckets))
	for id := range s.buckets {
		ids = append(ids, id)
	}
	return ids
}

func (s *MemStore) BucketPath(bucketID BucketID) (string, bool) {
	b := s.getBucket(bucketID)
	if b == nil {
		return "", false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path, true
}

func (s *MemStore) BlobNames(bucketID BucketID) []string {
	b := s.getBucket(bucketID)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	names := make([]string, 0, len(b.blobs))
	for name := range b.blobs {
		names = append(names, name)
	}
	b.mu.RUnlock()

	sortBlobNamesNumerically(names)
	return names
}

func (s *MemStore) GetBlobId(bucketID BucketID, blobName string) (string, bool) {
	if !s.BucketContainsBlob(bucketID, blobName) {
		return "", false
	}
	return blobName, true
}

func (s *MemStore) RenameBlob(bucketID BucketID, blobName, newBlobName string) error {
	b := s.getBucket(bucketID)
	if b == nil {
		return herrors.New(herrors.ErrNotFound, "bucket not found")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.blobs[blobName]
	if !ok {
		return herrors.New(herrors.ErrNotFound, "blob not found").WithPath(blobName)
	}
	if _, exists := b.blobs[newBlobName]; exists {
		return herrors.New(herrors.ErrRenameConflict, "target blob exists").WithPath(newBlobName)
	}

	b.blobs[newBlobName] = data
	delete(b.blobs, blobName)
	if _, dirty := b.dirty[blobName]; dirty {
		b.dirty[newBlobName] = struct{}{}
		delete(b.dirty, blobName)
	}
	return nil
}

func (s *MemStore) DestroyBlob(bucketID BucketID, blobName string) error {
	if !s.BucketContainsBlob(bucketID, blobName) {
		return herrors.New(herrors.ErrNotFound, "blob not found").WithPath(blobName)
	}
	s.BlobDelete(bucketID, blobName)
	return nil
}

var _ BucketAdmin = (*MemStore)(nil)
