package kv

import (
	"context"
	"sync"
)

// Memory is a context-scoped [Store]. One Memory belongs to one browsing
// context; End drops every key and the store stays empty afterwards.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	ended bool
}

// NewMemory returns an empty context-scoped store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return nil
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// End clears the store when its browsing context ends. Writes after End are
// dropped.
func (m *Memory) End() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.ended = true
}
