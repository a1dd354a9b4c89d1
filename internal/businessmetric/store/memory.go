package store

import (
	"context"
	"sort"
	"sync"

	"ghgledger/internal/businessmetric/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  domain.MetricID
	metrics map[domain.MetricID]*models.Metric
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{metrics: make(map[domain.MetricID]*models.Metric)}
}

func (s *InMemoryStore) Create(_ context.Context, m *models.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	stored := *m
	s.metrics[m.ID] = &stored
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Metric, 0, len(s.metrics))
	for _, m := range s.metrics {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.MetricID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.metrics[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.metrics, id)
	return nil
}

// FindByNameDate returns the lowest-id metric for name on date.
func (s *InMemoryStore) FindByNameDate(_ context.Context, name string, on domain.Date) (*models.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Metric
	for _, m := range s.metrics {
		if m.Name != name || m.Date != on {
			continue
		}
		if found == nil || m.ID < found.ID {
			found = m
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	c := *found
	return &c, nil
}
