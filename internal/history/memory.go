package history

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 500

// MemoryStore keeps the most recent records in a ring
type MemoryStore struct {
	mu     sync.RWMutex
	data   []Record
	head   int
	size   int
	closed bool
}

// NewMemoryStore creates a store holding up to capacity records
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{data: make([]Record, capacity)}
}

func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.data[m.head] = rec
	m.head = (m.head + 1) % len(m.data)
	if m.size < len(m.data) {
		m.size++
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	n := min(clampLimit(limit), m.size)
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		idx := (m.head - 1 - i + len(m.data)) % len(m.data)
		out[i] = m.data[idx]
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
