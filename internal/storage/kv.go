// Package storage provides the persistence collaborators behind the task store.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage is closed")

// KV is a key-value store of strings. Load reports ok=false when the key is absent.
type KV interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
}

// Stamped is implemented by stores that record when a key was last written.
type Stamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// Memory is an in-process KV. The zero value is ready to use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates a Memory KV, optionally seeded with initial values.
func NewMemory(seed map[string]string) *Memory {
	m := &Memory{data: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.data[k] = v
	}
	return m
}

// Load returns the value stored under key.
func (m *Memory) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

// Save stores value under key.
func (m *Memory) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	return nil
}
