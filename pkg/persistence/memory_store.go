package persistence

import (
	"sync"

	"github.com/mash-protocol/valuefor/pkg/message"
)

// MemoryStore keeps records in memory. Records are copied on Save and Load.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Load(key string) (*Record, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	out := copyRecord(rec)
	return &out, nil
}

func (s *MemoryStore) Save(key string, rec *Record) error {
	if key == "" {
		return ErrEmptyKey
	}
	if rec == nil {
		return ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Version = RecordVersion
	s.records[key] = copyRecord(*rec)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copyRecord(rec Record) Record {
	if rec.Message != nil {
		rec.Message = message.Sanitize(rec.Message)
	}
	if rec.LastValue != nil {
		v := *rec.LastValue
		rec.LastValue = &v
	}
	return rec
}

// Compile-time interface satisfaction check.
var _ Repository = (*MemoryStore)(nil)
