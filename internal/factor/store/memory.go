package store

import (
	"context"
	"sort"
	"sync"

	"ghgledger/internal/factor/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
)

// InMemoryStore keeps the factor catalog in memory, ordered by id.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  domain.FactorID
	factors map[domain.FactorID]*models.Factor
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{factors: make(map[domain.FactorID]*models.Factor)}
}

func (s *InMemoryStore) Create(_ context.Context, f *models.Factor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f.ID = s.nextID
	stored := *f
	s.factors[f.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.FactorID) (*models.Factor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.factors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Factor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Factor, 0, len(s.factors))
	for _, f := range s.factors {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.FactorID) (*models.Factor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.factors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.factors, id)
	return f, nil
}

// Resolve returns the lowest-id factor for (activity, unit) whose window contains on.
func (s *InMemoryStore) Resolve(_ context.Context, activity, unit string, on domain.Date) (*models.Factor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Factor
	for _, f := range s.factors {
		if f.Matches(activity, unit) && f.AppliesOn(on) && f.PreferredOver(best) {
			best = f
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	out := *best
	return &out, nil
}

func (s *InMemoryStore) ListOverlapping(_ context.Context, activity, unit string, from, to domain.Date) ([]*models.Factor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Factor
	for _, f := range s.factors {
		if f.Matches(activity, unit) && f.Overlaps(from, to) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
