// Package memory provides in-memory persistence implementations for
// development and testing.
package memory

import (
	"context"
	"sync"

	"github.com/dailydigest/digestd/internal/digest"
)

// TrackerStore keeps the tracker record in memory.
type TrackerStore struct {
	mu    sync.Mutex
	rec   digest.TrackerRecord
	saves int
}

// NewTrackerStore constructs an empty TrackerStore.
func NewTrackerStore() *TrackerStore {
	return &TrackerStore{}
}

// Load returns the current record.
func (s *TrackerStore) Load(_ context.Context) (digest.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone(), nil
}

// Save replaces the record.
func (s *TrackerStore) Save(_ context.Context, rec digest.TrackerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *TrackerStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
