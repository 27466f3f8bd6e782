package cache

import (
	"context"
	"sync"
)

// Store is a keyed cache. Entries have no expiry: once a key is written it is
// served until the process (or the backing store) forgets it.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, v V)
}

// Memory is a process-wide in-memory Store, safe for concurrent use.
type Memory[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{items: make(map[string]V)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *Memory[V]) Put(_ context.Context, key string, v V) {
	m.mu.Lock()
	if m.items == nil {
		m.items = make(map[string]V)
	}
	m.items[key] = v
	m.mu.Unlock()
}

// Len reports the number of cached keys.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
