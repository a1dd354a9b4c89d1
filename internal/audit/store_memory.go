package audit

import (
	"context"
	"sync"

	"ghgledger/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  domain.AuditEntryID
	entries []*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entries ...*Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.nextID++
		e.ID = s.nextID
		s.entries = append(s.entries, clone(e))
	}
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, clone(e))
	}
	return out, nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID domain.RecordID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0)
	for _, e := range s.entries {
		if e.RecordID == recordID {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

// clone copies the pointer fields too, so neither the caller nor a reader can
// rewrite a stored entry.
func clone(e *Entry) *Entry {
	c := *e
	c.OldValue = cloneString(e.OldValue)
	c.NewValue = cloneString(e.NewValue)
	c.Reason = cloneString(e.Reason)
	if e.ChangedBy != nil {
		by := *e.ChangedBy
		c.ChangedBy = &by
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
