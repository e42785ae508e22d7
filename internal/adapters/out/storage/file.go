// internal/adapters/out/storage/file.go
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	cartdom "atelier/internal/domain/cart"
)

// FileStorage persists the payload as a single JSON document on disk.
//
// This is the default adapter for desktop/CLI storefront clients: the file
// is the shared per-origin storage, and the fswatch broadcaster watches its
// directory to deliver storage events to sibling processes.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) (*FileStorage, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("file_storage: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{path: p}, nil
}

// Path returns the backing file path (used to pair with the fswatch
// broadcaster).
func (f *FileStorage) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Save writes atomically (temp file + rename) so a concurrent reader never
// observes a half-written payload.
func (f *FileStorage) Save(ctx context.Context, p cartdom.Persisted) error {
	if f == nil || f.path == "" {
		return errors.New("file_storage: not configured")
	}

	b, err := cartdom.EncodePersisted(p)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Load returns ok=false when the file does not exist yet.
func (f *FileStorage) Load(ctx context.Context) (cartdom.Persisted, bool, error) {
	empty := cartdom.Persisted{Items: []cartdom.Item{}}
	if f == nil || f.path == "" {
		return empty, false, errors.New("file_storage: not configured")
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, false, nil
		}
		return empty, false, err
	}

	p, err := cartdom.DecodePersisted(b)
	if err != nil {
		return empty, false, err
	}
	return p, true, nil
}
