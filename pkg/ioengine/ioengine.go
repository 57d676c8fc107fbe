// Package ioengine implements read and write in terms of page placements,
// blob-store operations, and backend reads for uncovered ranges.
//
// Every case in Write and Read assumes the page mapper has already
// produced the placement list and the caller has resolved the open-file
// entry; this package only knows about one bucket's blobs and one
// backing path at a time.
package ioengine

import (
	"context"

	"github.com/hermesio/hermes/internal/logger"
	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/hermesio/hermes/pkg/herrors"
	"github.com/hermesio/hermes/pkg/pagemap"
)

// FlushExclusionSet is the narrow slice of pkg/scope.Filter the engine
// needs to suppress flush/gap-read races.
type FlushExclusionSet interface {
	AddFlushExclusion(path string)
	RemoveFlushExclusion(path string)
}

// Engine executes reads and writes against one blob store and one backend,
// coordinating gap reads through a shared flush-exclusion set.
type Engine struct {
	store     blobstore.Store
	backend   Backend
	exclusion FlushExclusionSet

	// WriteOnlyHint, when set, skips the speculative gap read for
	// unaligned new-blob writes, zero-filling the prefix instead. Set by
	// hermes.New from config.Config.WriteOnlyHint.
	WriteOnlyHint bool
}

// Backend is the subset of backend.Client the engine calls directly.
// Declared locally (rather than importing pkg/backend) so the engine's
// dependency surface is exactly what it needs.
type Backend interface {
	Read(ctx context.Context, path string, offset int64, out []byte) (int, error)
	Write(ctx context.Context, path string, offset int64, data []byte) (int, error)
}

// New constructs an Engine over store and backend, coordinating gap reads
// through exclusion.
func New(store blobstore.Store, backend Backend, exclusion FlushExclusionSet) *Engine {
	return &Engine{store: store, backend: backend, exclusion: exclusion}
}

// gapRead reads up to length bytes at offset from path, while holding path
// out of the flush pipeline for the duration. It returns only the bytes the
// backend supplied; callers zero-fill any shortfall themselves.
func (e *Engine) gapRead(ctx context.Context, path string, offset int64, length int) ([]byte, error) {
	if length <= 0 {
		return nil, nil
	}

	e.exclusion.AddFlushExclusion(path)
	defer e.exclusion.RemoveFlushExclusion(path)

	buf := make([]byte, length)
	n, err := e.backend.Read(ctx, path, offset, buf)
	if err != nil {
		return nil, err
	}
	// n < length means the backing file is shorter than requested; the
	// returned slice is truncated to the n bytes actually read.
	return buf[:n], nil
}

// Write handles the six write cases for a single placement, returning the
// number of bytes the caller should consider written. When the blob store
// is full, the data is written through to the backend and no blob is
// recorded at this placement's name.
func (e *Engine) Write(ctx context.Context, bucketID blobstore.BucketID, path string, p pagemap.Placement, userData []byte) (int, error) {
	name := p.BlobName()
	existingLen := e.store.BlobGetSize(bucketID, name)
	exists := e.store.BucketContainsBlob(bucketID, name)

	var composed []byte

	switch {
	case !exists && p.BlobOff == 0:
		// Case 1/2: aligned, no existing blob (full page or tail).
		composed = userData

	case !exists && p.BlobOff > 0:
		// Case 3: unaligned, no existing blob.
		var prefix []byte
		if e.WriteOnlyHint {
			prefix = make([]byte, p.BlobOff)
		} else {
			var err error
			prefix, err = e.gapRead(ctx, path, p.BucketOff-p.BlobOff, int(p.BlobOff))
			if err != nil {
				return 0, err
			}
			if int64(len(prefix)) < p.BlobOff {
				padded := make([]byte, p.BlobOff)
				copy(padded, prefix)
				prefix = padded
			}
		}
		composed = make([]byte, p.BlobOff+p.BlobSize)
		copy(composed, prefix)
		copy(composed[p.BlobOff:], userData)

	case exists && p.BlobOff == 0:
		// Cases 4 and 5: aligned write against an existing blob. A
		// full-page overwrite (case 4, blob_size == P) always satisfies
		// blob_size >= existing_length since existing_length <= P, so it
		// falls out of the same replace-outright branch as case 5.
		if p.BlobSize >= existingLen {
			composed = userData
		} else {
			existing, _ := e.store.BlobGet(bucketID, name)
			composed = make([]byte, existingLen)
			copy(composed, existing)
			copy(composed, userData)
		}

	default:
		// Case 6: unaligned write against an existing blob.
		newSize := p.BlobOff + p.BlobSize
		if existingLen > newSize {
			newSize = existingLen
		}
		composed = make([]byte, newSize)

		existing, _ := e.store.BlobGet(bucketID, name)
		head := p.BlobOff
		if existingLen < head {
			head = existingLen
		}
		copy(composed, existing[:head])

		if existingLen < p.BlobOff {
			gap, err := e.gapRead(ctx, path, p.BucketOff-p.BlobOff+existingLen, int(p.BlobOff-existingLen))
			if err != nil {
				return 0, err
			}
			copy(composed[existingLen:], gap)
		}

		copy(composed[p.BlobOff:], userData)

		if p.BlobOff+p.BlobSize < existingLen {
			copy(composed[p.BlobOff+p.BlobSize:], existing[p.BlobOff+p.BlobSize:])
		}
	}

	if exists {
		// Invalidate the stale resident blob before attempting to store the
		// composed replacement. If BlobPut below fails with ErrCapacity,
		// the write-through fallback writes fresh data straight to the
		// backend; leaving the old blob dirty in the store would let a
		// later flush destage it over that fresh data and silently lose
		// the write.
		e.store.BlobDelete(bucketID, name)
	}

	if err := e.store.BlobPut(bucketID, name, composed); err != nil {
		if !herrors.Is(err, herrors.ErrCapacity) {
			return 0, err
		}
		// Capacity fallback: write through, do not record the blob. For an
		// existing blob (cases 4/5/6) the composed buffer, not just
		// userData, must go to the backend: composed already absorbed the
		// blob's prior content, which no longer exists in the store to be
		// destaged later.
		logger.Warn("blob store full, writing through", logger.BlobName(name))
		writeOffset := p.BucketOff
		writeData := userData
		if exists {
			writeOffset = p.BucketOff - p.BlobOff
			writeData = composed
		}
		if _, werr := e.backend.Write(ctx, path, writeOffset, writeData); werr != nil {
			return 0, werr
		}
		return len(userData), nil
	}

	return len(userData), nil
}

// Read handles the two read cases for a single placement, copying into
// out (which must be at least p.BlobSize long) starting at out[0], and
// returning the number of bytes transferred.
func (e *Engine) Read(ctx context.Context, bucketID blobstore.BucketID, path string, p pagemap.Placement, out []byte) (int, error) {
	name := p.BlobName()

	if data, ok := e.store.BlobGet(bucketID, name); ok {
		existingLen := int64(len(data))
		if existingLen <= p.BlobOff {
			return e.readGapForPlacement(ctx, path, p, out, 0)
		}

		copied := existingLen - p.BlobOff
		if copied > p.BlobSize {
			copied = p.BlobSize
		}
		copy(out, data[p.BlobOff:p.BlobOff+copied])

		if copied < p.BlobSize {
			return e.readGapForPlacement(ctx, path, p, out, copied)
		}
		return int(copied), nil
	}

	// Blob absent: read directly from the backend.
	n, err := e.backend.Read(ctx, path, p.BucketOff, out[:p.BlobSize])
	if err != nil {
		return 0, err
	}
	return n, nil
}

// readGapForPlacement fills out[already:p.BlobSize] from the backend at
// the corresponding absolute offset, returning the total bytes accounted
// for (already plus whatever the backend supplied).
func (e *Engine) readGapForPlacement(ctx context.Context, path string, p pagemap.Placement, out []byte, already int64) (int, error) {
	remaining := p.BlobSize - already
	if remaining <= 0 {
		return int(already), nil
	}

	gap, err := e.gapRead(ctx, path, p.BucketOff+already, int(remaining))
	if err != nil {
		return int(already), err
	}
	copy(out[already:], gap)
	return int(already) + len(gap), nil
}
