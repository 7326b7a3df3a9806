package securestore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound reports that no value is stored under the requested key.
var ErrNotFound = errors.New("securestore: key not found")

// Store abstracts the device's encrypted key-value storage. Values are
// opaque strings; encryption at rest is the platform's responsibility.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	DeleteItem(ctx context.Context, key string) error
}

// Memory is an in-process Store for tests.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// GetItem returns the stored value or ErrNotFound.
func (m *Memory) GetItem(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem stores value under key, overwriting any previous value.
func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// DeleteItem removes key. Deleting an absent key is not an error.
func (m *Memory) DeleteItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
