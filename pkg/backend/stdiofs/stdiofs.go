// Package stdiofs implements backend.Client in the style of the STDIO
// family (fopen/fread/fwrite/fclose/fflush): every call goes through a
// buffered stream handle rather than positional descriptor I/O.
package stdiofs

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/hermesio/hermes/pkg/backend"
)

// Client is a backend.Client that buffers each operation's stream through
// bufio, matching the STDIO family's buffered-handle semantics instead of
// posixfs's raw descriptor reads/writes.
type Client struct {
	// BufferSize sizes the bufio.Reader/Writer for each call. Zero uses
	// bufio's default.
	BufferSize int
}

// New constructs a stdiofs Client with the default buffer size.
func New() *Client { return &Client{} }

var _ backend.Client = (*Client)(nil)

// streamHandle is the stdiofs Handle: the real fopen-equivalent Open
// leaves open until the caller's matching fclose-equivalent Close.
type streamHandle struct {
	f *os.File
}

func (*streamHandle) isHandle() {}

func (c *Client) reader(f *os.File) *bufio.Reader {
	if c.BufferSize > 0 {
		return bufio.NewReaderSize(f, c.BufferSize)
	}
	return bufio.NewReader(f)
}

func (c *Client) writer(f *os.File) *bufio.Writer {
	if c.BufferSize > 0 {
		return bufio.NewWriterSize(f, c.BufferSize)
	}
	return bufio.NewWriter(f)
}

func (c *Client) Open(_ context.Context, path string, flags int, mode uint32) (backend.Handle, backend.Stat, error) {
	f, err := os.OpenFile(path, flags, os.FileMode(mode))
	if err != nil {
		return nil, backend.Stat{}, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, backend.Stat{}, err
	}
	return &streamHandle{f: f}, backend.Stat{Size: fi.Size(), ModifyTime: fi.ModTime()}, nil
}

func (c *Client) Close(_ context.Context, handle backend.Handle) error {
	sh, ok := handle.(*streamHandle)
	if !ok || sh.f == nil {
		return nil
	}
	return sh.f.Close()
}

func (c *Client) Read(_ context.Context, path string, offset int64, out []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(c.reader(f), out)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return n, err
}

func (c *Client) Write(_ context.Context, path string, offset int64, data []byte) (int, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	w := c.writer(f)
	n, err := w.Write(data)
	if err != nil {
		return n, err
	}
	if err := w.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

func (c *Client) Stat(_ context.Context, path string) (backend.Stat, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return backend.Stat{}, err
	}
	return backend.Stat{Size: fi.Size(), ModifyTime: fi.ModTime()}, nil
}

func (c *Client) Sync(_ context.Context, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func (c *Client) Unlink(_ context.Context, path string) error {
	return os.Remove(path)
}

func (c *Client) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (c *Client) Size(_ context.Context, path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return fi.Size(), nil
}
