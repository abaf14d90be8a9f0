package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a content-addressed store held in process memory. It is safe
// for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	blobs  map[ContentID][]byte
	pinned map[ContentID]bool
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		blobs:  make(map[ContentID][]byte),
		pinned: make(map[ContentID]bool),
	}
}

// Store implements Store.
func (m *Memory) Store(ctx context.Context, blob []byte) (ContentID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := Sum(blob)
	m.mu.Lock()
	if _, ok := m.blobs[id]; !ok {
		m.blobs[id] = append([]byte(nil), blob...)
	}
	m.mu.Unlock()
	return id, nil
}

// Fetch implements Store.
func (m *Memory) Fetch(ctx context.Context, id ContentID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.blobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return append([]byte(nil), b...), nil
}

// Pin implements Pinner.
func (m *Memory) Pin(ctx context.Context, id ContentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.pinned[id] = true
	return nil
}

// IsPinned implements Pinner.
func (m *Memory) IsPinned(ctx context.Context, id ContentID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pinned[id], nil
}

// Len returns the number of stored blobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
