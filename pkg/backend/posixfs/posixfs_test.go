package posixfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	c := New()
	ctx := context.Background()

	n, err := c.Write(ctx, path, 10, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	out := make([]byte, 5)
	n, err = c.Read(ctx, path, 10, out)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(out))
}

func TestRead_NonExistentFile(t *testing.T) {
	c := New()
	out := make([]byte, 10)
	n, err := c.Read(context.Background(), filepath.Join(t.TempDir(), "missing.bin"), 0, out)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRead_ShortFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	c := New()
	ctx := context.Background()

	_, err := c.Write(ctx, path, 0, []byte("ab"))
	require.NoError(t, err)

	out := make([]byte, 10)
	n, err := c.Read(ctx, path, 0, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExistsAndSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	c := New()
	ctx := context.Background()

	exists, err := c.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.Write(ctx, path, 0, []byte("hello world"))
	require.NoError(t, err)

	exists, err = c.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := c.Size(ctx, path)
	require.NoError(t, err)
	assert.EqualValues(t, 11, size)
}

func TestUnlink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	c := New()
	ctx := context.Background()

	_, err := c.Write(ctx, path, 0, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, c.Unlink(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenThenClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	c := New()
	ctx := context.Background()

	handle, st, err := c.Open(ctx, path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.Size)

	require.NoError(t, c.Close(ctx, handle))
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	c := New()
	ctx := context.Background()

	_, err := c.Write(ctx, path, 0, []byte("hello"))
	require.NoError(t, err)

	st, err := c.Stat(ctx, path)
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.Size)
}
