package store

import "sync"

// Store is an in-memory record map mirroring the last-known backend state for
// one entity type. Snapshots are copies; mutating a returned map never touches
// the store. ReplaceAll is the only operation feature managers call after a
// full reload, so the store diverges from the backend for at most one round
// trip.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	records map[K]V
}

// New creates an empty store
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		records: make(map[K]V),
	}
}

// Get returns the record for key
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	return v, ok
}

// GetAll returns a snapshot copy of all records
func (s *Store[K, V]) GetAll() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[K]V, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	return snapshot
}

// Upsert inserts or overwrites the record for key
func (s *Store[K, V]) Upsert(key K, record V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
}

// Remove deletes the record for key
func (s *Store[K, V]) Remove(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// ReplaceAll swaps in a full backend snapshot, discarding local state
func (s *Store[K, V]) ReplaceAll(records map[K]V) {
	next := make(map[K]V, len(records))
	for k, v := range records {
		next[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
}

// Len returns the number of records
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
