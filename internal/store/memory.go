package store

import (
	"context"
	"sync"

	"qtxlicense/internal/license"
)

// Memory is the reference Store implementation: a mutex-guarded map.
// Records are deep-copied on the way in and out so callers never alias
// stored state.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]license.Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]license.Record)}
}

// Seed inserts records directly, keyed by their canonical key. Intended
// for tests and fixtures.
func (m *Memory) Seed(recs ...license.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		key := license.CanonicalKey(rec.Key)
		rec.Key = key
		m.recs[key] = rec.Clone()
	}
}

// Get implements license.Store.
func (m *Memory) Get(_ context.Context, key string) (license.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.recs[key]
	if !ok {
		return license.Record{}, license.ErrNotFound
	}
	return rec.Clone(), nil
}

// Put implements license.Store.
func (m *Memory) Put(_ context.Context, key string, rec license.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Key = key
	m.recs[key] = rec.Clone()
	return nil
}

// Ready implements Store. The in-memory backend is always ready.
func (m *Memory) Ready(_ context.Context) error {
	return nil
}

// Close implements Store. It is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
