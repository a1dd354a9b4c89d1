package audit

import (
	"context"

	"ghgledger/pkg/domain"
)

// Store persists audit entries. Implementations never update or delete.
// Append assigns ids in insertion order; lists return entries ordered by id.
type Store interface {
	Append(ctx context.Context, entries ...*Entry) error
	ListAll(ctx context.Context) ([]*Entry, error)
	ListByRecord(ctx context.Context, recordID domain.RecordID) ([]*Entry, error)
}
