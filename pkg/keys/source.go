package keys

import (
	"context"
	"os"
)

// Source reads the raw bytes of a key file.
type Source interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileSource reads key files from the local filesystem.
type FileSource struct{}

func (FileSource) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}
