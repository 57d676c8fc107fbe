// Package herrors defines the error taxonomy shared by every component of
// the buffering core.
//
// These are domain errors (capacity exhausted, path not tracked, rename
// conflict) as opposed to infrastructure errors (a real backend I/O
// failure, which is propagated verbatim rather than wrapped here). Every
// package, the frontend wrapper layer (pkg/frontend) included, returns and
// inspects HermesError/ErrorCode directly; no package converts one into a
// POSIX/STDIO/MPI-IO native status code.
package herrors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the category of a core error.
type ErrorCode int

const (
	// ErrBackendFailure wraps a verbatim backend I/O failure.
	ErrBackendFailure ErrorCode = iota

	// ErrCapacity indicates blob_put failed due to no capacity in the
	// blob store; the caller must fall back to a write-through.
	ErrCapacity

	// ErrInvalidArgument indicates a negative size, overflowing offset,
	// or other malformed parameter. No state was changed.
	ErrInvalidArgument

	// ErrNotTracked indicates the scope filter routed the call straight
	// to the backend; the core did not touch it.
	ErrNotTracked

	// ErrShutdown indicates a process-wide shutdown is in progress;
	// behaves identically to ErrNotTracked.
	ErrShutdown

	// ErrLostHandle indicates close was called on a handle unknown to
	// the registry.
	ErrLostHandle

	// ErrRenameConflict indicates a bucket rename targeted a name that
	// already exists; neither bucket was modified.
	ErrRenameConflict

	// ErrNotFound indicates a requested bucket or blob does not exist.
	ErrNotFound
)

// String returns a short, stable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrBackendFailure:
		return "backend_failure"
	case ErrCapacity:
		return "capacity"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrNotTracked:
		return "not_tracked"
	case ErrShutdown:
		return "shutdown"
	case ErrLostHandle:
		return "lost_handle"
	case ErrRenameConflict:
		return "rename_conflict"
	case ErrNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// HermesError is the error type returned by every fallible operation in
// the core. It carries a category (Code), a human-readable Message, and
// optionally the Path the error concerns.
type HermesError struct {
	Code    ErrorCode
	Message string
	Path    string

	// Cause is the underlying error, if any (e.g. a real backend error).
	Cause error
}

// Error implements the error interface.
func (e *HermesError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *HermesError) Unwrap() error {
	return e.Cause
}

// New constructs a HermesError with no path or cause.
func New(code ErrorCode, message string) *HermesError {
	return &HermesError{Code: code, Message: message}
}

// Wrap constructs a HermesError that wraps an underlying cause, typically
// a verbatim backend failure.
func Wrap(code ErrorCode, message string, cause error) *HermesError {
	return &HermesError{Code: code, Message: message, Cause: cause}
}

// WithPath returns a copy of the error annotated with the path it concerns.
func (e *HermesError) WithPath(path string) *HermesError {
	clone := *e
	clone.Path = path
	return &clone
}

// Is reports whether err is a HermesError with the given code.
func Is(err error, code ErrorCode) bool {
	var he *HermesError
	if !errors.As(err, &he) {
		return false
	}
	return he.Code == code
}
