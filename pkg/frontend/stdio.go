package frontend

import "context"

// Fopen is the STDIO-named alias for Open, for callers linking against the
// fopen/fread/fwrite call family instead of open/read/write.
func (s *Session) Fopen(ctx context.Context, path string, flags int, mode uint32) (*FileHandle, error) {
	return s.Open(ctx, path, flags, mode)
}

// Fread is the STDIO-named alias for Read.
func (s *Session) Fread(ctx context.Context, fh *FileHandle, out []byte) (int, error) {
	return s.Read(ctx, fh, out)
}

// Fwrite is the STDIO-named alias for Write.
func (s *Session) Fwrite(ctx context.Context, fh *FileHandle, data []byte) (int, error) {
	return s.Write(ctx, fh, data)
}

// Fseek is the STDIO-named alias for Lseek.
func (s *Session) Fseek(ctx context.Context, fh *FileHandle, offset int64, whence int) (int64, error) {
	return s.Lseek(ctx, fh, offset, whence)
}

// Fflush is the STDIO-named alias for Fsync.
func (s *Session) Fflush(ctx context.Context, fh *FileHandle) error {
	return s.Fsync(ctx, fh)
}

// Fclose is the STDIO-named alias for Close.
func (s *Session) Fclose(ctx context.Context, fh *FileHandle) error {
	return s.Close(ctx, fh)
}
