package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable wraps backend failures so callers can treat every backend
// uniformly.
var ErrUnavailable = errors.New("storage unavailable")

// KV defines a public type used by shield APIs.
//
// KV is the durable key-value contract consumed by the engine for session,
// rate-window, firewall, threat, backup, and audit bookkeeping.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes a key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Memory is a process-local [KV] for tests and single-node deployments
// without durability requirements. Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-memory [KV].
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get implements [KV].
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set implements [KV].
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Remove implements [KV].
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
