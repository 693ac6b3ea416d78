package sessions

import (
	"context"
	"sync"
	"time"

	"cikyc/pkg/platform/sentinel"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// Memory is an in-process session registry for tests and deployments without
// Redis. Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Save(_ context.Context, tokenID string, session Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[tokenID] = memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *Memory) Get(_ context.Context, tokenID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, tokenID)
		return nil, sentinel.ErrNotFound
	}
	session := entry.session
	return &session, nil
}

func (m *Memory) Delete(_ context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, tokenID)
	return nil
}
