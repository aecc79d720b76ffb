package storage

import (
	"context"
	"sync"

	"github.com/LJTian/GrantHub/internal/aggregator"
)

// MemoryStore 仅保存在进程内，重启后丢失
type MemoryStore struct {
	mu   sync.RWMutex
	snap *aggregator.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, snap *aggregator.Snapshot) error {
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Latest(_ context.Context) (*aggregator.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return m.snap, nil
}

func (m *MemoryStore) Location() string {
	return "memory"
}

func (m *MemoryStore) Persistent() bool {
	return false
}
