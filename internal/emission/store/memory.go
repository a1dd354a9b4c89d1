package store

import (
	"context"
	"sort"
	"sync"

	"ghgledger/internal/emission/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
)

// InMemoryStore keeps emission records in memory. Callers serialize units of
// work with the memory tx runner; the store lock only guards single calls.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  domain.RecordID
	records map[domain.RecordID]*models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.RecordID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	r.Version = 1
	s.records[r.ID] = clone(r)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

// FindForUpdate is FindByID: the memory runner already holds the store-wide lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	return s.FindByID(ctx, id)
}

// List returns records ordered by id, filtered to scope unless scope is empty.
func (s *InMemoryStore) List(_ context.Context, scope domain.Scope) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.records))
	for _, r := range s.records {
		if scope != "" && r.Scope != scope {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update overwrites a record and bumps its version.
func (s *InMemoryStore) Update(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.Version = existing.Version + 1
	s.records[r.ID] = clone(r)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func clone(r *models.Record) *models.Record {
	c := *r
	if r.Location != nil {
		loc := *r.Location
		c.Location = &loc
	}
	if r.UserID != nil {
		uid := *r.UserID
		c.UserID = &uid
	}
	return &c
}
