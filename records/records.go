// Package records defines the record-store collaborator consumed by the
// model synthesizer: a way to turn a lookup key back into a live domain
// record during hydration.
package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound indicates no record exists for the given key.
var ErrNotFound = errors.New("records: not found")

// Record is a domain object that can be reduced to a class name and a
// lookup key for transport, and re-fetched by that key later.
type Record interface {
	RecordClass() string
	RecordKey() any
}

// Store re-fetches records by key during hydration.
//
// Implementations may hit a database, a cache, or memory; the engine only
// requires that FindByKey returns ErrNotFound (possibly wrapped) when the
// key no longer resolves.
type Store interface {
	FindByKey(ctx context.Context, key any) (Record, error)
}

// MemoryStore is an in-memory Store keyed by fmt.Sprint of the record key.
// Useful for tests and small fixed datasets.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates a MemoryStore seeded with the given records.
func NewMemoryStore(recs ...Record) *MemoryStore {
	s := &MemoryStore{records: make(map[string]Record)}
	for _, r := range recs {
		s.Put(r)
	}
	return s
}

// Put inserts or replaces a record under its own key.
func (s *MemoryStore) Put(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[fmt.Sprint(r.RecordKey())] = r
}

// FindByKey implements Store.
func (s *MemoryStore) FindByKey(_ context.Context, key any) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[fmt.Sprint(key)]
	if !ok {
		return nil, fmt.Errorf("%w: key %v", ErrNotFound, key)
	}
	return r, nil
}
