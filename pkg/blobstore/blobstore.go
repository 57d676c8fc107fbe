// Package blobstore maintains the bucket-to-blob mapping and per-blob
// storage that backs the I/O engine.
//
// A bucket corresponds to one tracked file; a blob holds the cached content
// of exactly one page of that file, named by its decimal page index. The
// store enforces a single writer per (bucket, blob) pair and lets readers
// observe either the pre-write or the post-write content atomically, never
// a partial write.
package blobstore

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hermesio/hermes/pkg/herrors"
)

// BucketID stably identifies a bucket for the lifetime of the process.
// Stats reference buckets by this integer id rather than holding a pointer
// back to the bucket, avoiding a reference cycle with the open-file
// registry.
type BucketID uint64

// Store is the bucket/blob metadata and payload API consulted by the I/O
// engine for every placement.
type Store interface {
	// GetOrCreateBucket returns the id of the bucket for canonicalPath,
	// creating one if none exists. Idempotent: a second call with the same
	// path returns the same id.
	GetOrCreateBucket(canonicalPath string) BucketID

	// BucketContainsBlob reports whether bucketID currently holds a blob
	// named blobName.
	BucketContainsBlob(bucketID BucketID, blobName string) bool

	// BlobGet returns a copy of the blob's content, or ok=false on a miss.
	BlobGet(bucketID BucketID, blobName string) (data []byte, ok bool)

	// BlobGetSize returns the blob's length without copying its payload,
	// or 0 if the blob does not exist.
	BlobGetSize(bucketID BucketID, blobName string) int64

	// BlobPut atomically replaces any existing blob of the same name and
	// marks it dirty. Returns a *herrors.HermesError with code
	// herrors.ErrCapacity if the store has no room; the caller must then
	// fall back to writing through to the backend.
	BlobPut(bucketID BucketID, blobName string, data []byte) error

	// BlobDelete removes a blob. A delete of a non-existent blob is a no-op.
	BlobDelete(bucketID BucketID, blobName string)

	// BucketTotalBlobSize sums the lengths of every blob in the bucket.
	BucketTotalBlobSize(bucketID BucketID) int64

	// BucketDestroy deletes every blob in the bucket and the bucket itself.
	BucketDestroy(bucketID BucketID) error

	// BucketRename moves bucketID to newCanonicalPath. Fails with
	// herrors.ErrRenameConflict if a bucket already exists at the target
	// path; neither bucket is modified on failure.
	BucketRename(bucketID BucketID, newCanonicalPath string) error

	// DirtyBlobNames returns the bucket's dirty blob names in ascending
	// numeric page-index order, for the flusher.
	DirtyBlobNames(bucketID BucketID) []string

	// ClearDirty removes blobName from the bucket's dirty set after it has
	// been destaged. A clear of an already-clean or missing blob is a no-op.
	ClearDirty(bucketID BucketID, blobName string)
}

// bucket holds all blobs for one tracked file under its own lock, allowing
// concurrent operations on different buckets (two-level locking: MemStore's
// globalMu guards the bucket map, each bucket's mu guards its blobs).
type bucket struct {
	mu    sync.RWMutex
	path  string
	blobs map[string][]byte
	dirty map[string]struct{}
}

// MemStore is an in-memory Store with an optional capacity ceiling on total
// payload bytes. maxSize == 0 means unlimited.
type MemStore struct {
	globalMu sync.RWMutex
	buckets  map[BucketID]*bucket
	byPath   map[string]BucketID
	nextID   atomic.Uint64

	maxSize   uint64
	totalSize atomic.Uint64
}

// NewMemStore creates an in-memory store. maxSize caps total blob payload
// bytes across every bucket; 0 means unlimited.
func NewMemStore(maxSize uint64) *MemStore {
	return &MemStore{
		buckets: make(map[BucketID]*bucket),
		byPath:  make(map[string]BucketID),
		maxSize: maxSize,
	}
}

func (s *MemStore) GetOrCreateBucket(canonicalPath string) BucketID {
	s.globalMu.RLock()
	id, exists := s.byPath[canonicalPath]
	s.globalMu.RUnlock()
	if exists {
		return id
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	if id, exists = s.byPath[canonicalPath]; exists {
		return id
	}

	id = BucketID(s.nextID.Add(1))
	s.buckets[id] = &bucket{
		path:  canonicalPath,
		blobs: make(map[string][]byte),
		dirty: make(map[string]struct{}),
	}
	s.byPath[canonicalPath] = id
	return id
}

func (s *MemStore) getBucket(bucketID BucketID) *bucket {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()
	return s.buckets[bucketID]
}

func (s *MemStore) BucketContainsBlob(bucketID BucketID, blobName string) bool {
	b := s.getBucket(bucketID)
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blobs[blobName]
	return ok
}

func (s *MemStore) BlobGet(bucketID BucketID, blobName string) ([]byte, bool) {
	b := s.getBucket(bucketID)
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[blobName]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

func (s *MemStore) BlobGetSize(bucketID BucketID, blobName string) int64 {
	b := s.getBucket(bucketID)
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.blobs[blobName]))
}

func (s *MemStore) BlobPut(bucketID BucketID, blobName string, data []byte) error {
	b := s.getBucket(bucketID)
	if b == nil {
		return herrors.New(herrors.ErrNotFound, "bucket not found")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	oldLen := uint64(len(b.blobs[blobName]))
	newLen := uint64(len(data))

	if s.maxSize > 0 {
		projected := s.totalSize.Load() - oldLen + newLen
		if projected > s.maxSize {
			return herrors.New(herrors.ErrCapacity, "blob store full").WithPath(blobName)
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	b.blobs[blobName] = stored
	b.dirty[blobName] = struct{}{}

	s.totalSize.Add(newLen - oldLen)
	return nil
}

func (s *MemStore) BlobDelete(bucketID BucketID, blobName string) {
	b := s.getBucket(bucketID)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if data, ok := b.blobs[blobName]; ok {
		s.totalSize.Add(^(uint64(len(data)) - 1)) // subtract via two's complement
		delete(b.blobs, blobName)
		delete(b.dirty, blobName)
	}
}

func (s *MemStore) BucketTotalBlobSize(bucketID BucketID) int64 {
	b := s.getBucket(bucketID)
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total int64
	for _, data := range b.blobs {
		total += int64(len(data))
	}
	return total
}

func (s *MemStore) BucketDestroy(bucketID BucketID) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return herrors.New(herrors.ErrNotFound, "bucket not found")
	}

	b.mu.Lock()
	var freed uint64
	for _, data := range b.blobs {
		freed += uint64(len(data))
	}
	b.mu.Unlock()

	s.totalSize.Add(^(freed - 1))
	delete(s.buckets, bucketID)
	delete(s.byPath, b.path)
	return nil
}

func (s *MemStore) BucketRename(bucketID BucketID, newCanonicalPath string) error {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	b, ok := s.buckets[bucketID]
	if !ok {
		return herrors.New(herrors.ErrNotFound, "bucket not found")
	}
	if _, exists := s.byPath[newCanonicalPath]; exists {
		return herrors.New(herrors.ErrRenameConflict, "target bucket exists").WithPath(newCanonicalPath)
	}

	delete(s.byPath, b.path)
	b.mu.Lock()
	b.path = newCanonicalPath
	b.mu.Unlock()
	s.byPath[newCanonicalPath] = bucketID
	return nil
}

func (s *MemStore) DirtyBlobNames(bucketID BucketID) []string {
	b := s.getBucket(bucketID)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.dirty))
	for name := range b.dirty {
		names = append(names, name)
	}
	sortBlobNamesNumerically(names)
	return names
}

// sortBlobNamesNumerically orders decimal page-index blob names by their
// numeric value rather than lexically, so "10" sorts after "9", mirroring
// AdapterStat::CompareBlobs.
func sortBlobNamesNumerically(names []string) {
	sort.Slice(names, func(i, j int) bool {
		ni, _ := strconv.ParseInt(names[i], 10, 64)
		nj, _ := strconv.ParseInt(names[j], 10, 64)
		return ni < nj
	})
}

func (s *MemStore) ClearDirty(bucketID BucketID, blobName string) {
	b := s.getBucket(bucketID)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.dirty, blobName)
}
