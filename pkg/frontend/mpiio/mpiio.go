// Package mpiio exposes the MPI-IO call family (MPI_File_open/read/write/
// iread/iwrite/read_all/write_all/seek/sync/close and friends) over a
// frontend.Session: collective calls reduce to a single-process call with
// no cross-rank aggregation, and nonblocking calls run the underlying
// operation on a background goroutine whose completion is observed
// through a Future, mirroring backend/mpifs's barrier-wrapped Client and
// its Iread/Iwrite pair.
package mpiio

import (
	"context"

	"github.com/hermesio/hermes/pkg/frontend"
)

// File is an MPI-IO file handle: one frontend.FileHandle plus the session
// that owns it.
type File struct {
	session *frontend.Session
	handle  *frontend.FileHandle
}

// Future is a handle to an in-flight nonblocking request (MPI_Request),
// grounded on backend/mpifs.Future.
type Future struct {
	n    int
	err  error
	done chan struct{}
}

// Wait blocks until the request completes (MPI_Wait).
func (f *Future) Wait(ctx context.Context) (int, error) {
	select {
	case <-f.done:
		return f.n, f.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Test reports whether the request has completed (MPI_Test) without
// blocking.
func (f *Future) Test() (done bool, n int, err error) {
	select {
	case <-f.done:
		return true, f.n, f.err
	default:
		return false, 0, nil
	}
}

// FileOpen implements MPI_File_open: every rank in the (trivial, single-
// process) communicator opens the same path independently.
func FileOpen(ctx context.Context, s *frontend.Session, path string, flags int, mode uint32) (*File, error) {
	fh, err := s.Open(ctx, path, flags, mode)
	if err != nil {
		return nil, err
	}
	return &File{session: s, handle: fh}, nil
}

// Read implements MPI_File_read: a blocking, non-collective read at the
// handle's own file position.
func (f *File) Read(ctx context.Context, out []byte) (int, error) {
	return f.session.Read(ctx, f.handle, out)
}

// ReadAt implements MPI_File_read_at: a blocking, non-collective read at
// an explicit offset, leaving the handle's position untouched.
func (f *File) ReadAt(ctx context.Context, offset int64, out []byte) (int, error) {
	return f.session.Pread(ctx, f.handle, out, offset)
}

// ReadAll implements MPI_File_read_all: the collective counterpart of
// Read. At single-process fidelity it is Read with no cross-rank
// aggregation.
func (f *File) ReadAll(ctx context.Context, out []byte) (int, error) {
	return f.Read(ctx, out)
}

// Write implements MPI_File_write: a blocking, non-collective write at the
// handle's own file position.
func (f *File) Write(ctx context.Context, data []byte) (int, error) {
	return f.session.Write(ctx, f.handle, data)
}

// WriteAt implements MPI_File_write_at.
func (f *File) WriteAt(ctx context.Context, offset int64, data []byte) (int, error) {
	return f.session.Pwrite(ctx, f.handle, data, offset)
}

// WriteAll implements MPI_File_write_all, the collective counterpart of
// Write, at single-process fidelity.
func (f *File) WriteAll(ctx context.Context, data []byte) (int, error) {
	return f.Write(ctx, data)
}

// Iread implements MPI_File_iread: a nonblocking read, returning
// immediately with a Future the caller later Waits or Tests on.
func (f *File) Iread(ctx context.Context, out []byte) *Future {
	fut := &Future{done: make(chan struct{})}
	go func() {
		defer close(fut.done)
		fut.n, fut.err = f.Read(ctx, out)
	}()
	return fut
}

// Iwrite implements MPI_File_iwrite, the nonblocking counterpart of Write.
func (f *File) Iwrite(ctx context.Context, data []byte) *Future {
	fut := &Future{done: make(chan struct{})}
	go func() {
		defer close(fut.done)
		fut.n, fut.err = f.Write(ctx, data)
	}()
	return fut
}

// Seek implements MPI_File_seek.
func (f *File) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	return f.session.Lseek(ctx, f.handle, offset, whence)
}

// Sync implements MPI_File_sync.
func (f *File) Sync(ctx context.Context) error {
	return f.session.Fsync(ctx, f.handle)
}

// Close implements MPI_File_close.
func (f *File) Close(ctx context.Context) error {
	return f.session.Close(ctx, f.handle)
}
