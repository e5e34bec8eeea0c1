package repo

import (
	"context"
	"sync"
)

// Memory — Backend в памяти процесса.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Load реализует Backend.
func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

// Save реализует Backend.
func (m *Memory) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), payload...)
	return nil
}
