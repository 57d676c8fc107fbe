// Package posixfs implements backend.Client against os.File, modeling the
// upstream PosixFS trait: Read/Write/Stat/Sync/Unlink/Exists/Size each open
// their own file descriptor, perform one positional operation, and close
// before returning; Open/Close is the one pair that holds a descriptor
// open across the call boundary, mirroring a real POSIX open(2)/close(2).
package posixfs

import (
	"context"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/hermesio/hermes/pkg/backend"
)

// Client is a backend.Client backed directly by the local filesystem.
type Client struct{}

// New constructs a posixfs Client.
func New() *Client { return &Client{} }

var _ backend.Client = (*Client)(nil)

// fileHandle is the posixfs Handle: the real os.File Open leaves open
// until the caller's matching Close.
type fileHandle struct {
	f *os.File
}

func (*fileHandle) isHandle() {}

func (c *Client) Open(_ context.Context, path string, flags int, mode uint32) (backend.Handle, backend.Stat, error) {
	f, err := os.OpenFile(path, flags, os.FileMode(mode))
	if err != nil {
		return nil, backend.Stat{}, err
	}
	st, err := statFile(f)
	if err != nil {
		f.Close()
		return nil, backend.Stat{}, err
	}
	return &fileHandle{f: f}, st, nil
}

func (c *Client) Close(_ context.Context, handle backend.Handle) error {
	fh, ok := handle.(*fileHandle)
	if !ok || fh.f == nil {
		return nil
	}
	return fh.f.Close()
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

	n, err := f.ReadAt(out, offset)
	// a short read at EOF is expected -- read what is available -- not an
	// error to the caller.
	if err == io.EOF {
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

	return f.WriteAt(data, offset)
}

func (c *Client) Stat(_ context.Context, path string) (backend.Stat, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return backend.Stat{}, err
	}
	return statFromFileInfo(fi), nil
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

func statFile(f *os.File) (backend.Stat, error) {
	fi, err := f.Stat()
	if err != nil {
		return backend.Stat{}, err
	}
	return statFromFileInfo(fi), nil
}

func statFromFileInfo(fi os.FileInfo) backend.Stat {
	st := backend.Stat{
		Size:       fi.Size(),
		ModifyTime: fi.ModTime(),
		Mode:       uint32(fi.Mode().Perm()),
		BlockSize:  4096,
	}
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		st.Device = uint64(sys.Dev)
		st.Inode = sys.Ino
		st.UID = sys.Uid
		st.GID = sys.Gid
		st.BlockSize = int64(sys.Blksize)
		st.AccessTime = time.Unix(sys.Atim.Sec, sys.Atim.Nsec)
		st.ChangeTime = time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)
	}
	return st
}
