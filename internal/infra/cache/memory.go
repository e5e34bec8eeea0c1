package cache

import (
	"sync"
	"time"

	"tiktroq/internal/domain"
)

// Memory — кэш в памяти процесса для dev-режима и тестов.
type Memory struct {
	mu   sync.Mutex
	now  func() time.Time
	keys map[string]time.Time
}

var _ domain.Cache = (*Memory)(nil)

// NewMemory создаёт кэш в памяти.
func NewMemory() *Memory {
	return &Memory{now: time.Now, keys: make(map[string]time.Time)}
}

// Once выполняет функцию, если ключ ещё не задан или истёк.
func (m *Memory) Once(key string, ttl time.Duration, fn func() error) error {
	m.mu.Lock()
	now := m.now()
	if expires, ok := m.keys[key]; ok && now.Before(expires) {
		m.mu.Unlock()
		return nil
	}
	m.keys[key] = now.Add(ttl)
	m.mu.Unlock()

	if err := fn(); err != nil {
		m.mu.Lock()
		delete(m.keys, key)
		m.mu.Unlock()
		return err
	}
	return nil
}
