// Package file implements store.Backend on the local filesystem: one JSON file
// per document key, replaced atomically on every save.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gosuda/torneo/internal/store"
)

// Backend stores each key as <dir>/<key>.json.
type Backend struct {
	dir string
	mu  sync.RWMutex
}

// Compile-time interface check.
var _ store.Backend = (*Backend)(nil) //nolint:gochecknoglobals // compile-time check

// New creates a Backend rooted at dir, creating the directory if needed.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file.New: create directory: %w", err)
	}
	return &Backend{dir: dir}, nil
}

// Path returns the file backing key.
func (b *Backend) Path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Load reads the document stored under key.
func (b *Backend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file.Backend.Load: %w", err)
	}
	return data, nil
}

// Save replaces the document under key. The previous file stays intact if
// any step before the final rename fails.
func (b *Backend) Save(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.Path(key)
	tmp, err := os.CreateTemp(b.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("file.Backend.Save: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("file.Backend.Save: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("file.Backend.Save: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file.Backend.Save: close temp: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("file.Backend.Save: rename: %w", err)
	}

	return nil
}
