package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ghgledger/internal/audit/outbox"
	"ghgledger/pkg/domain"
	"ghgledger/pkg/requestcontext"
)

// EntryCounter is satisfied by *metrics.Metrics.
type EntryCounter interface {
	AddAuditEntries(n int)
}

// Trail appends audit entries and answers audit queries. Appends are
// synchronous so they share the caller's unit of work: a failed correction
// must leave no entries behind.
type Trail struct {
	store   Store
	outbox  outbox.Store
	logger  *slog.Logger
	metrics EntryCounter
}

// TrailOption configures the Trail.
type TrailOption func(*Trail)

func WithTrailLogger(logger *slog.Logger) TrailOption {
	return func(t *Trail) {
		t.logger = logger
	}
}

func WithTrailMetrics(m EntryCounter) TrailOption {
	return func(t *Trail) {
		t.metrics = m
	}
}

// WithOutbox queues every appended batch for publication in the same unit of work.
func WithOutbox(store outbox.Store) TrailOption {
	return func(t *Trail) {
		t.outbox = store
	}
}

func NewTrail(store Store, opts ...TrailOption) *Trail {
	t := &Trail{store: store}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append persists entries in order. It is a no-op for an empty batch.
func (t *Trail) Append(ctx context.Context, entries ...*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := t.store.Append(ctx, entries...); err != nil {
		return fmt.Errorf("append %d audit entries: %w", len(entries), err)
	}
	if t.outbox != nil {
		if err := t.enqueue(ctx, entries); err != nil {
			return err
		}
	}
	if t.logger != nil {
		for _, e := range entries {
			t.logger.InfoContext(ctx, "audit entry appended",
				"log_type", "audit",
				"audit_entry_id", e.ID,
				"record_id", e.RecordID,
				"field_name", e.FieldName,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	if t.metrics != nil {
		t.metrics.AddAuditEntries(len(entries))
	}
	return nil
}

func (t *Trail) List(ctx context.Context) ([]*Entry, error) {
	return t.store.ListAll(ctx)
}

func (t *Trail) ListByRecord(ctx context.Context, recordID domain.RecordID) ([]*Entry, error) {
	return t.store.ListByRecord(ctx, recordID)
}

// Batch is the message published for one appended batch.
type Batch struct {
	RecordID  domain.RecordID `json:"record_id"`
	EventType string          `json:"event_type"`
	Entries   []*Entry        `json:"entries"`
}

func (t *Trail) enqueue(ctx context.Context, entries []*Entry) error {
	eventType := outbox.EventRecordCorrected
	for _, e := range entries {
		if e.IsRecordLevel() {
			eventType = outbox.EventRecordDeleted
			break
		}
	}
	batch := Batch{RecordID: entries[0].RecordID, EventType: eventType, Entries: entries}
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode audit batch: %w", err)
	}
	entry := outbox.NewEntry(batch.RecordID, eventType, payload, requestcontext.Now(ctx))
	if err := t.outbox.Append(ctx, entry); err != nil {
		return fmt.Errorf("queue audit batch: %w", err)
	}
	return nil
}
