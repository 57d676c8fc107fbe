package frontend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hermesio/hermes/internal/bytesize"
	"github.com/hermesio/hermes/pkg/config"
	"github.com/hermesio/hermes/pkg/hermes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageSize = 16

func newTestSession(t *testing.T) (*Session, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.MountPoints = []string{dir}
	cfg.PageSize = bytesize.ByteSize(testPageSize)

	ctx, err := hermes.New(cfg)
	require.NoError(t, err)

	return New(ctx), dir
}

func TestOpenWriteReadRoundTrip(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)

	n, err := s.Write(ctx, fh, []byte("hello world, spanning more than one page"))
	require.NoError(t, err)
	require.Equal(t, len("hello world, spanning more than one page"), n)

	out := make([]byte, n)
	rn, err := s.Pread(ctx, fh, out, 0)
	require.NoError(t, err)
	require.Equal(t, n, rn)
	require.Equal(t, "hello world, spanning more than one page", string(out))

	require.NoError(t, s.Close(ctx, fh))
}

func TestUnalignedWriteZeroFillsBlobPrefix(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)

	// Page size is 16; writing at offset 4 with nothing in the page yet is
	// case 3 ("unaligned, no existing blob"), which must zero-fill [0,4)
	// rather than leave it undefined.
	_, err = s.Pwrite(ctx, fh, []byte("tail"), 4)
	require.NoError(t, err)

	out := make([]byte, 8)
	n, err := s.Pread(ctx, fh, out, 0)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, make([]byte, 4), out[:4])
	require.Equal(t, "tail", string(out[4:]))

	require.NoError(t, s.Close(ctx, fh))
}

func TestSequentialPositionAdvances(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = s.Write(ctx, fh, []byte("abc"))
	require.NoError(t, err)
	_, err = s.Write(ctx, fh, []byte("def"))
	require.NoError(t, err)

	out := make([]byte, 6)
	_, err = s.Pread(ctx, fh, out, 0)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(out))

	require.NoError(t, s.Close(ctx, fh))
}

func TestFsyncDestagesToBackingFile(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "d.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = s.Write(ctx, fh, []byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, s.Fsync(ctx, fh))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "persisted", string(onDisk))

	require.NoError(t, s.Close(ctx, fh))
}

func TestCloseFlushesOnLastRefCount(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "e.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fh1, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	fh2, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = s.Write(ctx, fh1, []byte("shared"))
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx, fh1))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEqual(t, "shared", string(onDisk))

	require.NoError(t, s.Close(ctx, fh2))
	onDisk, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "shared", string(onDisk))
}

func TestLseekAppendModeReturnsSize(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o644))

	fh, err := s.Open(ctx, path, os.O_RDWR|os.O_APPEND, 0o644)
	require.NoError(t, err)

	pos, err := s.Lseek(ctx, fh, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, len("existing"), pos)

	require.NoError(t, s.Close(ctx, fh))
}

// TestConcurrentDisjointPageWritersProduceCorrectPages exercises the first
// concurrency property: two threads each writing disjoint pages of one
// file produce a file whose pages each reflect the writer's value.
func TestConcurrentDisjointPageWritersProduceCorrectPages(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "disjoint.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	const writers = 4
	pattern := make([][]byte, writers)
	for i := range pattern {
		pattern[i] = bytes.Repeat([]byte{byte('A' + i)}, testPageSize)
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
			if err != nil {
				errs <- err
				return
			}
			defer func() { errs <- s.Close(ctx, fh) }()
			_, err = s.Pwrite(ctx, fh, pattern[i], int64(i*testPageSize))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	out := make([]byte, writers*testPageSize)
	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = s.Pread(ctx, fh, out, 0)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx, fh))

	for i := 0; i < writers; i++ {
		page := out[i*testPageSize : (i+1)*testPageSize]
		assert.Equal(t, pattern[i], page, "page %d does not reflect its writer's value", i)
	}
}

// TestConcurrentSameRangeWritersDoNotTear exercises the second concurrency
// property: two threads writing the same (page, offset, size) range
// produce a file whose bytes equal one of the two writer values, never a
// mix of both (no tearing).
func TestConcurrentSameRangeWritersDoNotTear(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()
	path := filepath.Join(dir, "torn.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	valueA := bytes.Repeat([]byte{'A'}, testPageSize)
	valueB := bytes.Repeat([]byte{'B'}, testPageSize)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, v := range [][]byte{valueA, valueB} {
		wg.Add(1)
		go func(v []byte) {
			defer wg.Done()
			fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
			if err != nil {
				errs <- err
				return
			}
			defer func() { errs <- s.Close(ctx, fh) }()
			_, err = s.Pwrite(ctx, fh, v, 0)
			errs <- err
		}(v)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	out := make([]byte, testPageSize)
	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = s.Pread(ctx, fh, out, 0)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx, fh))

	isA := bytes.Equal(out, valueA)
	isB := bytes.Equal(out, valueB)
	assert.True(t, isA || isB, "result %q is neither writer's value -- a torn write", out)
}

func TestUntrackedPathBypassesCore(t *testing.T) {
	s, dir := newTestSession(t)
	ctx := context.Background()

	// /var is excluded unconditionally by the scope filter regardless of
	// configuration; exercise the same bypass path through a configured
	// exclusion instead, to keep the test hermetic to t.TempDir().
	path := filepath.Join(dir, "excluded", "g.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s.ctx.Scope.SetExclusions([]string{filepath.Join(dir, "excluded")})

	fh, err := s.Open(ctx, path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.False(t, fh.tracked)

	_, err = s.Write(ctx, fh, []byte("direct"))
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "direct", string(onDisk))

	require.NoError(t, s.Close(ctx, fh))
}
