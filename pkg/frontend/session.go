// Package frontend is the adapter boundary: it exposes the POSIX/STDIO
// call families as methods on a Session, wiring the scope filter,
// registry, page mapper, I/O engine, and flush pipeline in the same
// control flow the core always uses. Errors from the core reach callers as
// *herrors.HermesError values (backend errors verbatim); this package does
// not convert them to POSIX/STDIO/MPI-IO native status codes.
package frontend

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hermesio/hermes/internal/logger"
	"github.com/hermesio/hermes/pkg/backend"
	"github.com/hermesio/hermes/pkg/flusher"
	"github.com/hermesio/hermes/pkg/hermes"
	"github.com/hermesio/hermes/pkg/herrors"
	"github.com/hermesio/hermes/pkg/pagemap"
	"github.com/hermesio/hermes/pkg/registry"
	"github.com/hermesio/hermes/pkg/scope"
)

// Session is one process's view of the buffering core: every open file it
// holds shares the Context's registry, blob store, I/O engine, and flush
// pipeline.
type Session struct {
	ctx *hermes.Context
}

// New constructs a Session over ctx.
func New(ctx *hermes.Context) *Session {
	return &Session{ctx: ctx}
}

// FileHandle is a session-local open-file reference. It is not comparable
// across sessions and carries its own sequential position, independent of
// whatever position another handle on the same file may have reached --
// there is no stronger cross-handle consistency than that.
type FileHandle struct {
	mu         sync.Mutex
	key        registry.Handle
	path       string
	tracked    bool
	position   int64
	backendRef backend.Handle
}

// Open implements the open protocol: perform the real open first, then
// either bypass the core entirely (untracked path) or look up/create the
// registry entry for (device, inode). The returned FileHandle carries the
// real backend handle forward so Close can release it.
func (s *Session) Open(ctx context.Context, path string, flags int, mode uint32) (*FileHandle, error) {
	backendRef, stat, err := s.ctx.Backend.Open(ctx, path, flags, mode)
	if err != nil {
		// Step 1: the real open failed; return the backend's error verbatim.
		return nil, err
	}

	if !s.ctx.Scope.Tracked(path) {
		return &FileHandle{path: path, tracked: false, backendRef: backendRef}, nil
	}

	key := registry.Handle{Device: stat.Device, Inode: stat.Inode}
	now := time.Now()

	existing, ok := s.ctx.Registry.Find(key)
	if ok {
		existing.RefCount++
		existing.AccessTime = now
		existing.ChangeTime = now
		if err := s.ctx.Registry.Update(key, existing); err != nil {
			return nil, err
		}
		return &FileHandle{key: key, path: path, tracked: true, position: existing.Position, backendRef: backendRef}, nil
	}

	canonical := scope.Canonicalize(path)
	bucketID := s.ctx.Store.GetOrCreateBucket(canonical)
	size := stat.Size
	if blobSize := s.ctx.Store.BucketTotalBlobSize(bucketID); blobSize > size {
		size = blobSize
	}

	appendMode := flags&os.O_APPEND != 0
	var position int64
	if appendMode {
		position = size
	}

	entry := registry.AdapterStat{
		BucketID:      bucketID,
		Path:          canonical,
		RefCount:      1,
		Append:        appendMode,
		DeleteOnClose: false,
		Persist:       s.persists(),
		Size:          size,
		Position:      position,
		AccessTime:    now,
		ModifyTime:    now,
		ChangeTime:    now,
	}
	if err := s.ctx.Registry.Create(key, entry); err != nil {
		return nil, err
	}

	return &FileHandle{key: key, path: path, tracked: true, position: position, backendRef: backendRef}, nil
}

// persists reports whether newly opened files should be flushed and
// destaged at close, per the adapter mode: scratch/bypass never persist.
func (s *Session) persists() bool {
	switch s.ctx.Config.ParseAdapterMode() {
	case scope.ModeScratch, scope.ModeBypass:
		return false
	default:
		return true
	}
}

// Write writes data at fh's current sequential position and advances it,
// mirroring POSIX write(2).
func (s *Session) Write(ctx context.Context, fh *FileHandle, data []byte) (int, error) {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	n, err := s.pwriteLocked(ctx, fh, data, fh.position)
	fh.position += int64(n)
	return n, err
}

// Pwrite writes data at an explicit offset, leaving fh's sequential
// position untouched, mirroring POSIX pwrite(2).
func (s *Session) Pwrite(ctx context.Context, fh *FileHandle, data []byte, offset int64) (int, error) {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	return s.pwriteLocked(ctx, fh, data, offset)
}

func (s *Session) pwriteLocked(ctx context.Context, fh *FileHandle, data []byte, offset int64) (int, error) {
	if !fh.tracked {
		return s.ctx.Backend.Write(ctx, fh.path, offset, data)
	}

	stat, ok := s.ctx.Registry.Find(fh.key)
	if !ok {
		return 0, herrors.New(herrors.ErrLostHandle, "handle not registered").WithPath(fh.path)
	}

	placements, err := pagemap.Map(offset, int64(len(data)), int64(s.ctx.Config.PageSize))
	if err != nil {
		return 0, err
	}

	var total int
	for _, p := range placements {
		chunk := data[total : total+int(p.BlobSize)]
		start := time.Now()
		n, werr := s.ctx.Engine.Write(ctx, stat.BucketID, fh.path, p, chunk)
		s.ctx.IOMetrics().ObserveWrite(n, time.Since(start))
		total += n
		if werr != nil {
			return total, werr
		}
	}

	if newSize := offset + int64(total); newSize > stat.Size {
		stat.Size = newSize
	}
	stat.ModifyTime = time.Now()
	if err := s.ctx.Registry.Update(fh.key, stat); err != nil {
		return total, err
	}

	if async, ok := s.ctx.Flusher.(*flusher.AsyncFlusher); ok {
		async.Notify(ctx, stat.BucketID, fh.path)
	}

	return total, nil
}

// Read reads into out from fh's current sequential position and advances
// it, mirroring POSIX read(2).
func (s *Session) Read(ctx context.Context, fh *FileHandle, out []byte) (int, error) {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	n, err := s.preadLocked(ctx, fh, out, fh.position)
	fh.position += int64(n)
	return n, err
}

// Pread reads from an explicit offset, leaving fh's sequential position
// untouched, mirroring POSIX pread(2).
func (s *Session) Pread(ctx context.Context, fh *FileHandle, out []byte, offset int64) (int, error) {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	return s.preadLocked(ctx, fh, out, offset)
}

func (s *Session) preadLocked(ctx context.Context, fh *FileHandle, out []byte, offset int64) (int, error) {
	if !fh.tracked {
		return s.ctx.Backend.Read(ctx, fh.path, offset, out)
	}

	stat, ok := s.ctx.Registry.Find(fh.key)
	if !ok {
		return 0, herrors.New(herrors.ErrLostHandle, "handle not registered").WithPath(fh.path)
	}

	placements, err := pagemap.Map(offset, int64(len(out)), int64(s.ctx.Config.PageSize))
	if err != nil {
		return 0, err
	}

	var total int
	for _, p := range placements {
		start := int64(total)
		end := start + p.BlobSize
		start2 := time.Now()
		n, rerr := s.ctx.Engine.Read(ctx, stat.BucketID, fh.path, p, out[start:end])
		s.ctx.IOMetrics().ObserveRead(n, time.Since(start2))
		total += n
		if rerr != nil {
			return total, rerr
		}
		if int64(n) < p.BlobSize {
			break
		}
	}

	return total, nil
}

// Lseek repositions fh per SEEK_SET/SEEK_CUR/SEEK_END semantics. In append
// mode it is a no-op returning the current size.
func (s *Session) Lseek(ctx context.Context, fh *FileHandle, offset int64, whence int) (int64, error) {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	if fh.tracked {
		stat, ok := s.ctx.Registry.Find(fh.key)
		if ok && stat.Append {
			return stat.Size, nil
		}
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = fh.position
	case io.SeekEnd:
		size, err := s.currentSize(ctx, fh)
		if err != nil {
			return 0, err
		}
		base = size
	default:
		return 0, herrors.New(herrors.ErrInvalidArgument, "invalid whence")
	}

	fh.position = base + offset
	if fh.tracked {
		if stat, ok := s.ctx.Registry.Find(fh.key); ok {
			stat.Position = fh.position
			_ = s.ctx.Registry.Update(fh.key, stat)
		}
	}
	return fh.position, nil
}

func (s *Session) currentSize(ctx context.Context, fh *FileHandle) (int64, error) {
	if fh.tracked {
		stat, ok := s.ctx.Registry.Find(fh.key)
		if ok {
			return stat.Size, nil
		}
	}
	return s.ctx.Backend.Size(ctx, fh.path)
}

// Fsync runs the flush pipeline over fh's dirty blobs. Untracked handles
// pass straight through to the backend's sync.
func (s *Session) Fsync(ctx context.Context, fh *FileHandle) error {
	if !fh.tracked {
		return s.ctx.Backend.Sync(ctx, fh.path)
	}

	stat, ok := s.ctx.Registry.Find(fh.key)
	if !ok {
		return herrors.New(herrors.ErrLostHandle, "handle not registered").WithPath(fh.path)
	}
	if !stat.Persist {
		return nil
	}
	return s.ctx.Flusher.FlushBucket(ctx, stat.BucketID, fh.path)
}

// Close implements the close protocol. Step 1 is the ref-count-gated
// flush/destage/unlink logic below; step 2, calling the real backend
// close, runs on every invocation regardless of ref_count -- a handle a
// process opened must have its descriptor released even when other
// processes (or other opens in this process) still hold the file tracked.
func (s *Session) Close(ctx context.Context, fh *FileHandle) error {
	defer s.closeBackendRef(ctx, fh)

	if !fh.tracked {
		return nil
	}

	stat, ok := s.ctx.Registry.Find(fh.key)
	if !ok {
		return herrors.New(herrors.ErrLostHandle, "handle not registered").WithPath(fh.path)
	}

	stat.RefCount--
	if stat.RefCount > 0 {
		stat.AccessTime = time.Now()
		return s.ctx.Registry.Update(fh.key, stat)
	}

	if stat.Persist {
		if err := s.ctx.Flusher.FlushBucket(ctx, stat.BucketID, fh.path); err != nil {
			return err
		}
		if err := s.ctx.Store.BucketDestroy(stat.BucketID); err != nil {
			return err
		}
	}

	if stat.DeleteOnClose {
		if err := s.ctx.Backend.Unlink(ctx, fh.path); err != nil {
			logger.Warn("delete-on-close unlink failed", logger.Err(err), logger.Path(fh.path))
		}
	}

	s.ctx.Registry.Delete(fh.key)
	return nil
}

// closeBackendRef releases the real handle Open returned, independent of
// the ref-counted bookkeeping above.
func (s *Session) closeBackendRef(ctx context.Context, fh *FileHandle) {
	if fh.backendRef == nil {
		return
	}
	ref := fh.backendRef
	fh.backendRef = nil
	if err := s.ctx.Backend.Close(ctx, ref); err != nil {
		logger.Warn("backend close failed", logger.Err(err), logger.Path(fh.path))
	}
}
