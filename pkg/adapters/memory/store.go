package memory

import (
	"context"
	"sync"

	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// Store implements ports.ResultStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]*domain.Result
}

// NewStore creates an in-memory result store.
func NewStore() *Store {
	return &Store{data: make(map[string]*domain.Result)}
}

// Save persists a deep copy of the result tree, so the caller's live tree
// cannot mutate the stored one.
func (s *Store) Save(ctx context.Context, runID string, result *domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = result.Clone()
	return nil
}

// Load retrieves a copy of the result tree for a run.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return r.Clone(), nil
}

// Delete removes the run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the stored run IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	return runs, nil
}
