package storage

import (
	"context"
	"sync"

	"github.com/cppla/nailgrow/ledger"
)

// MemoryStore is a process-local store, used by tests and the "memory" backend.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

var _ ledger.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Load decodes the current values.
func (s *MemoryStore) Load(_ context.Context) (ledger.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DecodeRecord(s.values)
}

// Save replaces every ledger key.
func (s *MemoryStore) Save(_ context.Context, rec ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range EncodeRecord(rec) {
		s.values[k] = v
	}
	return nil
}

// GetSetting returns a free-form value.
func (s *MemoryStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// SetSetting stores a free-form value.
func (s *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Put sets a raw value, bypassing the codec.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
