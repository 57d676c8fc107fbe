// Package backend defines the narrow trait the I/O engine uses to reach
// real storage, and provides three concrete adapters over it.
//
// The engine is generic over Client: it never assumes POSIX, STDIO, or
// MPI-IO specifics, matching the upstream FilesystemIoClient trait that
// every concrete adapter (PosixFS, StdioFS, MpiioIoClient) implements.
package backend

import (
	"context"
	"time"
)

// Stat mirrors the subset of file metadata the core needs from a backend:
// size, mtime, atime, ctime, mode, uid, gid, dev, inode, blksize.
type Stat struct {
	Size       int64
	AccessTime time.Time
	ModifyTime time.Time
	ChangeTime time.Time
	Mode       uint32
	UID        uint32
	GID        uint32
	Device     uint64
	Inode      uint64
	BlockSize  int64
}

// Handle is an opaque reference to a file a Client has opened. Concrete
// adapters define their own handle type; callers never inspect one, only
// hold it between Open and the matching Close.
type Handle interface {
	isHandle()
}

// Client is the backend I/O trait the I/O engine, flusher, and frontend
// session consult for every real-storage operation. Read/Write/Stat/Sync/Unlink/
// Exists/Size each open, perform one operation, and close internally;
// Open/Close is the one pair an adapter is allowed to hold a real
// underlying descriptor open across, which is why the close protocol
// calls Close explicitly instead of relying on those single-shot calls.
type Client interface {
	// Open performs the real open and returns a Handle plus the resulting
	// Stat, used by the registry's open protocol to seed a new
	// AdapterStat. flags mirrors POSIX open(2) flags where meaningful.
	// The caller owns the returned Handle and must pass it to Close
	// exactly once.
	Open(ctx context.Context, path string, flags int, mode uint32) (Handle, Stat, error)

	// Close releases a Handle returned by Open. It is the real close the
	// close protocol requires on every call, independent of any
	// reference-counting layered on top by the caller.
	Close(ctx context.Context, handle Handle) error

	// Read reads length bytes at offset into out, returning bytes read.
	// Opens, reads, and closes internally.
	Read(ctx context.Context, path string, offset int64, out []byte) (int, error)

	// Write writes data at offset, returning bytes written. Opens, writes,
	// and closes internally.
	Write(ctx context.Context, path string, offset int64, data []byte) (int, error)

	// Stat returns current metadata for path.
	Stat(ctx context.Context, path string) (Stat, error)

	// Sync flushes any backend-side buffering for path to stable storage.
	Sync(ctx context.Context, path string) error

	// Unlink removes path from the backend.
	Unlink(ctx context.Context, path string) error

	// Exists reports whether path currently exists in the backend.
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the current size of path, or 0 if it does not exist.
	Size(ctx context.Context, path string) (int64, error)
}
