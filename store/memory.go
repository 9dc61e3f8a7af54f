// Package store provides expiring key-value backends for session
// persistence: an in-memory store and a bun/sqlite-backed one.
package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process expiring key-value store. Expired entries are
// dropped lazily on read.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (m *Memory) WithClock(clock func() time.Time) *Memory {
	if clock != nil {
		m.now = clock
	}
	return m
}

func (m *Memory) Set(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryEntry{value: stored, expiresAt: expiresAt}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(m.now()) {
		delete(m.items, key)
		return nil, false, nil
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
