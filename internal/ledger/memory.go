package ledger

import (
	"context"
	"sort"
	"sync"

	"crosscheck/internal/incident"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[incident.IncidentID]Entry
	order   []incident.IncidentID
	// FailRecord, when set, is returned by Record without writing anything.
	FailRecord error
	// FailRead, when set, is returned by HasBeenReported.
	FailRead error
}

// NewMemoryStore returns an empty store, optionally seeded with entries.
func NewMemoryStore(seed ...Entry) *MemoryStore {
	s := &MemoryStore{entries: make(map[incident.IncidentID]Entry)}
	_ = s.Record(context.Background(), seed...)
	return s
}

// HasBeenReported implements Store.
func (s *MemoryStore) HasBeenReported(_ context.Context, id incident.IncidentID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRead != nil {
		return false, s.FailRead
	}
	_, ok := s.entries[id]
	return ok, nil
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRecord != nil {
		return s.FailRecord
	}
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok {
			continue
		}
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return nil
}

// List returns entries in insertion order.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		if e := s.entries[id]; filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of recorded incidents.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Keys returns the recorded ids as sorted strings.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}
