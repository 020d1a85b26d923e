package fuel

import "sync"

// Store holds the most recently fetched price list. The list is only ever
// replaced as a whole. Each fetch takes a sequence number from Begin and
// hands it back to Apply, so a response that completes after a newer one
// has been applied is dropped instead of overwriting fresher data.
type Store struct {
	mu      sync.RWMutex
	records []Record
	issued  uint64
	applied uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Begin issues the sequence number for a new fetch.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply replaces the records if seq is newer than the last applied fetch.
// It reports whether the records were applied.
func (s *Store) Apply(seq uint64, records []Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.records = append([]Record(nil), records...)
	return true
}

// Records returns a copy of the current records.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset drops the records. Fetches issued before Reset can no longer apply.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.applied = s.issued
}
