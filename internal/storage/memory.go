package storage

import (
	"fmt"
	"sync"
)

// MemoryBackend is an in-memory Backend used in test mode and as the graceful
// fallback when no data directory is usable. State lives only for the process.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string

	// FailWrites forces every Set to error, for exercising degraded-save paths.
	FailWrites bool
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string]string),
	}
}

// Get returns the stored value for key.
func (m *MemoryBackend) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok
}

// Set stores the value for key.
func (m *MemoryBackend) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("backend unavailable")
	}
	m.values[key] = value
	return nil
}

// Len reports the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
