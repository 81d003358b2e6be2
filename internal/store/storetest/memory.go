// Package storetest provides an in-memory store.Backend for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/gosuda/torneo/internal/store"
)

// Memory keeps documents in a map and can be told to fail writes.
type Memory struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   map[string]int
	saveErr error
}

// Compile-time interface check.
var _ store.Backend = (*Memory)(nil) //nolint:gochecknoglobals // compile-time check

// NewMemory returns an empty backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte), saves: make(map[string]int)}
}

// Load implements store.Backend.
func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), d...), nil
}

// Save implements store.Backend.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), data...)
	m.saves[key]++
	return nil
}

// FailSaves makes every later Save return err; nil restores writes.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns how many writes of key succeeded.
func (m *Memory) Saves(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[key]
}

// Raw returns the stored bytes of key.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok
}
