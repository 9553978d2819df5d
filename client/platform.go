package client

import (
	"io"
	"os"
	"path/filepath"
)

// Filesystem is the local disk access some operations need. Clients built
// WithoutFilesystem have none and refuse those operations.
type Filesystem interface {
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)
}

// OSFilesystem reads and writes through package os. It is the default.
type OSFilesystem struct{}

func (OSFilesystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Create creates or truncates name, making parent directories as needed.
func (OSFilesystem) Create(name string) (io.WriteCloser, error) {
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(name)
}
