// Package outbox carries committed audit batches to Kafka. Batches are written
// to the outbox in the same transaction as the audit entries and published by
// a background worker, so a rolled-back correction never reaches the stream.
package outbox

import (
	"time"

	"github.com/google/uuid"

	"ghgledger/pkg/domain"
)

const (
	EventRecordCorrected = "record_corrected"
	EventRecordDeleted   = "record_deleted"
)

// Entry is one pending audit batch.
type Entry struct {
	ID          uuid.UUID
	RecordID    domain.RecordID
	EventType   string
	Payload     []byte // JSON-encoded batch of audit entries
	CreatedAt   time.Time
	ProcessedAt *time.Time // nil until published
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

func NewEntry(recordID domain.RecordID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:        uuid.New(),
		RecordID:  recordID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: now,
	}
}
