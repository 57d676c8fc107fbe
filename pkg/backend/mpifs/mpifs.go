// Package mpifs wraps another backend.Client with communicator-scoped
// barrier hooks, modeling the MPI-IO family as a barrier-before/
// barrier-after wrapper around single-process operations. It does not
// implement true collective I/O; each call is a single-process operation
// on the wrapped client, bracketed by a barrier on the communicator.
package mpifs

import (
	"context"

	"github.com/hermesio/hermes/pkg/backend"
)

// Communicator is the narrow collective-synchronization surface the
// wrapper needs, standing in for an MPI_Comm. A real binding would
// implement this over cgo MPI calls; tests use an in-process fake.
type Communicator interface {
	// Barrier blocks until every rank in the communicator has called it,
	// modeling MPI_Barrier.
	Barrier(ctx context.Context) error

	// Rank returns this process's rank within the communicator.
	Rank() int

	// Size returns the communicator's rank count.
	Size() int
}

// Client wraps another backend.Client, bracketing every call with a
// barrier before and after. MPI_File_read_all/write_all/read_ordered/
// write_ordered and friends all reduce, at this fidelity, to a barrier
// around a single-process call.
type Client struct {
	inner backend.Client
	comm  Communicator
}

// New wraps inner with barrier-before/barrier-after semantics on comm.
func New(inner backend.Client, comm Communicator) *Client {
	return &Client{inner: inner, comm: comm}
}

var _ backend.Client = (*Client)(nil)

func (c *Client) around(ctx context.Context, fn func() error) error {
	if err := c.comm.Barrier(ctx); err != nil {
		return err
	}
	err := fn()
	if bErr := c.comm.Barrier(ctx); bErr != nil && err == nil {
		err = bErr
	}
	return err
}

func (c *Client) Open(ctx context.Context, path string, flags int, mode uint32) (backend.Handle, backend.Stat, error) {
	var h backend.Handle
	var st backend.Stat
	err := c.around(ctx, func() error {
		var err error
		h, st, err = c.inner.Open(ctx, path, flags, mode)
		return err
	})
	return h, st, err
}

// Close releases a handle opened through the wrapped client, bracketed by
// the same barrier-before/barrier-after wrapping as every other call
// (MPI_File_close is itself a collective operation).
func (c *Client) Close(ctx context.Context, handle backend.Handle) error {
	return c.around(ctx, func() error {
		return c.inner.Close(ctx, handle)
	})
}

func (c *Client) Read(ctx context.Context, path string, offset int64, out []byte) (int, error) {
	var n int
	err := c.around(ctx, func() error {
		var err error
		n, err = c.inner.Read(ctx, path, offset, out)
		return err
	})
	return n, err
}

func (c *Client) Write(ctx context.Context, path string, offset int64, data []byte) (int, error) {
	var n int
	err := c.around(ctx, func() error {
		var err error
		n, err = c.inner.Write(ctx, path, offset, data)
		return err
	})
	return n, err
}

func (c *Client) Stat(ctx context.Context, path string) (backend.Stat, error) {
	return c.inner.Stat(ctx, path)
}

func (c *Client) Sync(ctx context.Context, path string) error {
	return c.around(ctx, func() error {
		return c.inner.Sync(ctx, path)
	})
}

func (c *Client) Unlink(ctx context.Context, path string) error {
	return c.around(ctx, func() error {
		return c.inner.Unlink(ctx, path)
	})
}

func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	return c.inner.Exists(ctx, path)
}

func (c *Client) Size(ctx context.Context, path string) (int64, error) {
	return c.inner.Size(ctx, path)
}

// Future is a handle to an in-flight nonblocking MPI-IO request
// (MPI_File_iread/iwrite), grounded on the Done-channel completion pattern
// transfer.TransferRequest uses for its own async operations. The result is
// not available until Wait returns.
type Future struct {
	n    int
	err  error
	done chan struct{}
}

// Wait blocks until the request completes (MPI_Wait), returning the
// transfer's byte count and error.
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

// Iread issues a nonblocking read (MPI_File_iread), bracketed by the same
// barrier-before/barrier-after wrapping as Read, run on a background
// goroutine so the caller can overlap computation with the transfer.
func (c *Client) Iread(ctx context.Context, path string, offset int64, out []byte) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.n, f.err = c.Read(ctx, path, offset, out)
	}()
	return f
}

// Iwrite issues a nonblocking write (MPI_File_iwrite), mirroring Iread.
func (c *Client) Iwrite(ctx context.Context, path string, offset int64, data []byte) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.n, f.err = c.Write(ctx, path, offset, data)
	}()
	return f
}
