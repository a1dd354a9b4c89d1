package outbox

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"ghgledger/internal/platform/kafka/producer"
	"ghgledger/pkg/platform/circuit"
)

// Publisher is satisfied by *producer.Producer.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// WorkerMetrics is satisfied by *metrics.Metrics.
type WorkerMetrics interface {
	SetOutboxPending(n int64)
	IncrementOutboxPublished()
	IncrementOutboxPublishFailures()
	ObserveOutboxPublishDuration(durationSeconds float64)
}

// Worker polls the outbox and publishes pending batches to Kafka.
// Delivery is at least once: an entry published but not marked is sent
// again on the next poll, keyed by its id so consumers can drop duplicates.
type Worker struct {
	store        Store
	publisher    Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	sweepEvery   time.Duration
	metrics      WorkerMetrics
	breaker      *circuit.Breaker
	logger       *slog.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WorkerOption func(*Worker)

func WithTopic(topic string) WorkerOption {
	return func(w *Worker) {
		w.topic = topic
	}
}

func WithBatchSize(size int) WorkerOption {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention sets how long published entries are kept before the sweep
// deletes them.
func WithRetention(retention time.Duration) WorkerOption {
	return func(w *Worker) {
		w.retention = retention
	}
}

func WithWorkerMetrics(m WorkerMetrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithBreaker replaces the default breaker, which opens after five
// consecutive publish failures.
func WithBreaker(b *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		if b != nil {
			w.breaker = b
		}
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(store Store, publisher Publisher, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		store:        store,
		publisher:    publisher,
		topic:        "ghgledger.audit.entries",
		batchSize:    100,
		pollInterval: 500 * time.Millisecond,
		retention:    7 * 24 * time.Hour,
		sweepEvery:   time.Minute,
		breaker:      circuit.New("kafka-audit"),
		logger:       slog.Default(),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(w.sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-poll.C:
			w.Poll(w.ctx)
		case <-sweep.C:
			w.sweep(w.ctx)
		}
	}
}

// Poll publishes one batch and reports how many entries were marked processed.
// A failed entry is left pending for the next poll. While the breaker is open
// a poll stops at its first failure.
func (w *Worker) Poll(ctx context.Context) int {
	entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to fetch outbox entries", "error", err)
		w.incFailures()
		return 0
	}

	published := 0
	for _, entry := range entries {
		if err := w.publish(ctx, entry); err != nil {
			w.logger.ErrorContext(ctx, "failed to publish outbox entry",
				"outbox_id", entry.ID,
				"record_id", entry.RecordID,
				"event_type", entry.EventType,
				"error", err,
			)
			w.incFailures()
			open, change := w.breaker.RecordFailure()
			if change.Opened {
				w.logger.WarnContext(ctx, "kafka unavailable, outbox publishing degraded", "breaker", w.breaker.Name())
			}
			if open {
				break
			}
			continue
		}
		if _, change := w.breaker.RecordSuccess(); change.Closed {
			w.logger.InfoContext(ctx, "kafka publishing recovered", "breaker", w.breaker.Name())
		}
		if err := w.store.MarkProcessed(ctx, entry.ID, w.now()); err != nil {
			w.logger.ErrorContext(ctx, "failed to mark outbox entry processed",
				"outbox_id", entry.ID,
				"error", err,
			)
			continue
		}
		published++
		if w.metrics != nil {
			w.metrics.IncrementOutboxPublished()
		}
	}
	return published
}

func (w *Worker) publish(ctx context.Context, entry *Entry) error {
	start := time.Now()
	msg := &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.ID.String()),
		Value: entry.Payload,
		Headers: map[string]string{
			"record_id":  strconv.FormatInt(int64(entry.RecordID), 10),
			"event_type": entry.EventType,
		},
	}
	if err := w.publisher.Produce(ctx, msg); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.ObserveOutboxPublishDuration(time.Since(start).Seconds())
	}
	return nil
}

// sweep refreshes the pending gauge and deletes entries past retention.
func (w *Worker) sweep(ctx context.Context) {
	if w.metrics != nil {
		if n, err := w.store.CountPending(ctx); err == nil {
			w.metrics.SetOutboxPending(n)
		}
	}
	if w.retention <= 0 {
		return
	}
	deleted, err := w.store.DeleteProcessedBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to delete published outbox entries", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.DebugContext(ctx, "deleted published outbox entries", "count", deleted)
	}
}

// drain publishes what is still pending during shutdown, bounded by a short timeout.
func (w *Worker) drain() {
	w.logger.Info("draining outbox worker")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for ctx.Err() == nil {
		if w.Poll(ctx) == 0 {
			return
		}
	}
}

// Stop cancels polling and waits for the drain to finish or ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) incFailures() {
	if w.metrics != nil {
		w.metrics.IncrementOutboxPublishFailures()
	}
}
