package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File persists items as a JSON document with 0600 permissions. It stands in
// for the platform keychain on hosts that do not provide one.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile builds a file-backed store rooted at path. The parent directory
// must already exist.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("securestore: path is required")
	}
	return &File{path: path}, nil
}

// GetItem returns the stored value or ErrNotFound.
func (f *File) GetItem(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem stores value under key, overwriting any previous value.
func (f *File) SetItem(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = value
	return f.save(items)
}

// DeleteItem removes key. Deleting an absent key is not an error.
func (f *File) DeleteItem(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.save(items)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("securestore: read %s: %w", f.path, err)
	}

	items := make(map[string]string)
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("securestore: decode %s: %w", f.path, err)
	}
	return items, nil
}

func (f *File) save(items map[string]string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("securestore: encode: %w", err)
	}

	// Write-then-rename so a crash never leaves a truncated store.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("securestore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("securestore: rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}
