package lockout

import (
	"context"
	"sync"
)

// Memory is the in-process lockout store used in tests and single-node runs.
type Memory struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (m *Memory) Put(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Key] = cloneRecord(rec)
	return nil
}

func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	if rec.LockedUntil != nil {
		until := *rec.LockedUntil
		out.LockedUntil = &until
	}
	return &out
}
