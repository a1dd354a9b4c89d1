package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghgledger/internal/audit/outbox"
	"ghgledger/internal/platform/metrics"
	"ghgledger/pkg/domain"
	"ghgledger/pkg/requestcontext"
)

type failingStore struct{ InMemoryStore }

func (f *failingStore) Append(context.Context, ...*Entry) error {
	return errors.New("disk full")
}

func TestTrailAppend(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	trail := NewTrail(NewInMemoryStore(),
		WithTrailLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
		WithTrailMetrics(m),
	)
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")

	require.NoError(t, trail.Append(ctx, quantityEntry(3), quantityEntry(3)))
	assert.InDelta(t, 2, testutil.ToFloat64(m.AuditEntriesWritten), 0)
	assert.Contains(t, buf.String(), `"log_type":"audit"`)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	entries, err := trail.ListByRecord(ctx, domain.RecordID(3))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	all, err := trail.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTrailAppendEmptyBatch(t *testing.T) {
	trail := NewTrail(&failingStore{})
	assert.NoError(t, trail.Append(context.Background()))
}

func TestTrailAppendStoreFailure(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	trail := NewTrail(&failingStore{}, WithTrailMetrics(m))

	err := trail.Append(context.Background(), quantityEntry(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.InDelta(t, 0, testutil.ToFloat64(m.AuditEntriesWritten), 0)
}

func TestTrailQueuesBatchInOutbox(t *testing.T) {
	queue := outbox.NewInMemoryStore()
	trail := NewTrail(NewInMemoryStore(), WithOutbox(queue))
	ctx := context.Background()

	require.NoError(t, trail.Append(ctx, quantityEntry(7), quantityEntry(7)))
	reason := "duplicate"
	require.NoError(t, trail.Append(ctx, &Entry{RecordID: 8, FieldName: FieldAll, Reason: &reason}))

	pending, err := queue.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, outbox.EventRecordCorrected, pending[0].EventType)
	assert.Equal(t, domain.RecordID(7), pending[0].RecordID)
	assert.Equal(t, outbox.EventRecordDeleted, pending[1].EventType)

	var batch Batch
	require.NoError(t, json.Unmarshal(pending[0].Payload, &batch))
	assert.Len(t, batch.Entries, 2)
	assert.Equal(t, "quantity", batch.Entries[0].FieldName)
	assert.NotZero(t, batch.Entries[0].ID, "ids are assigned before the batch is queued")
}

func TestTrailAppendStoreFailureQueuesNothing(t *testing.T) {
	queue := outbox.NewInMemoryStore()
	trail := NewTrail(&failingStore{}, WithOutbox(queue))

	require.Error(t, trail.Append(context.Background(), quantityEntry(1)))
	n, err := queue.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
