package test

import (
	"context"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

// MemoryKV is an in-memory repository.KeyValueStore with injectable failures.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte

	GetErr    error
	SetErr    error
	RemoveErr error

	Sets    int
	Removes int
}

var _ repository.KeyValueStore = (*MemoryKV)(nil)

// NewMemoryKV returns an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Sets++
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (m *MemoryKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removes++
	delete(m.values, key)
	return nil
}

// Put seeds key without touching the counters.
func (m *MemoryKV) Put(key string, value []byte) {
	m.mu.Lock()
	m.values[key] = append([]byte(nil), value...)
	m.mu.Unlock()
}

// Value reports the raw bytes under key.
func (m *MemoryKV) Value(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}
