package logger

import (
	"encoding/hex"
	"log/slog"
)

// Standard field keys for structured logging across the buffering core.
// Use these keys consistently so log lines stay greppable across packages.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyCall = "call" // frontend call name: WRITE, READ, OPEN, MPI_File_write_at, ...

	KeyPath       = "path"        // tracked file path
	KeyOldPath    = "old_path"    // source path for bucket rename
	KeyNewPath    = "new_path"    // destination path for bucket rename
	KeyBucketID   = "bucket_id"   // stable bucket identifier
	KeyBlobName   = "blob_name"   // decimal page index
	KeyPageIndex  = "page_index"  // 1-based page index
	KeySize       = "size"        // file / content size in bytes
	KeyMode       = "mode"        // open mode flags
	KeyHandle     = "handle"      // opaque file handle bytes, hex-encoded

	KeyOffset       = "offset"        // file offset for read/write operations
	KeyCount        = "count"         // byte count requested
	KeyBytesRead    = "bytes_read"    // actual bytes read
	KeyBytesWritten = "bytes_written" // actual bytes written

	KeyUID = "uid"
	KeyGID = "gid"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	KeyDirtyBlobs = "dirty_blobs" // blobs handed to the flush pipeline
	KeyAsync      = "async"       // whether the async flusher handled the call
)

// TraceID returns a slog.Attr for the distributed trace ID.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for the distributed span ID.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Call returns a slog.Attr for the frontend call name.
func Call(name string) slog.Attr { return slog.String(KeyCall, name) }

// Path returns a slog.Attr for a tracked file path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// OldPath returns a slog.Attr for the source path of a bucket rename.
func OldPath(p string) slog.Attr { return slog.String(KeyOldPath, p) }

// NewPath returns a slog.Attr for the destination path of a bucket rename.
func NewPath(p string) slog.Attr { return slog.String(KeyNewPath, p) }

// BucketID returns a slog.Attr for a stable bucket identifier.
func BucketID(id uint64) slog.Attr { return slog.Uint64(KeyBucketID, id) }

// BlobName returns a slog.Attr for a blob name (decimal page index).
func BlobName(name string) slog.Attr { return slog.String(KeyBlobName, name) }

// PageIndex returns a slog.Attr for a 1-based page index.
func PageIndex(idx int64) slog.Attr { return slog.Int64(KeyPageIndex, idx) }

// Size returns a slog.Attr for a size in bytes.
func Size(s uint64) slog.Attr { return slog.Uint64(KeySize, s) }

// Mode returns a slog.Attr for open mode flags.
func Mode(m uint32) slog.Attr { return slog.Any(KeyMode, m) }

// Handle returns a slog.Attr for opaque file handle bytes, formatted as hex.
func Handle(h []byte) slog.Attr { return slog.String(KeyHandle, hex.EncodeToString(h)) }

// Offset returns a slog.Attr for a file offset.
func Offset(off int64) slog.Attr { return slog.Int64(KeyOffset, off) }

// Count returns a slog.Attr for a requested byte count.
func Count(c int) slog.Attr { return slog.Int(KeyCount, c) }

// BytesRead returns a slog.Attr for actual bytes read.
func BytesRead(n int) slog.Attr { return slog.Int(KeyBytesRead, n) }

// BytesWritten returns a slog.Attr for actual bytes written.
func BytesWritten(n int) slog.Attr { return slog.Int(KeyBytesWritten, n) }

// UID returns a slog.Attr for a user ID.
func UID(uid uint32) slog.Attr { return slog.Any(KeyUID, uid) }

// GID returns a slog.Attr for a group ID.
func GID(gid uint32) slog.Attr { return slog.Any(KeyGID, gid) }

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr { return slog.Int(KeyErrorCode, code) }

// DirtyBlobs returns a slog.Attr for the number of blobs handed to flush.
func DirtyBlobs(n int) slog.Attr { return slog.Int(KeyDirtyBlobs, n) }

// Async returns a slog.Attr indicating whether async flush handled the call.
func Async(v bool) slog.Attr { return slog.Bool(KeyAsync, v) }
