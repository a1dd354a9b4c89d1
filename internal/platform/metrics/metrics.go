package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec

	// Derivation metrics
	RecordsDerived      *prometheus.CounterVec
	FactorResolveMiss   prometheus.Counter
	RecordsCorrected    prometheus.Counter
	RecordsDeleted      *prometheus.CounterVec
	AuditEntriesWritten prometheus.Counter

	// Factor catalog metrics
	FactorsCreated  prometheus.Counter
	FactorsRejected prometheus.Counter
	FactorCacheHits prometheus.Counter
	FactorCacheMiss prometheus.Counter

	// Reporting metrics
	ReportLatency *prometheus.HistogramVec

	// Audit outbox metrics
	OutboxPending         prometheus.Gauge
	OutboxPublished       prometheus.Counter
	OutboxPublishFailures prometheus.Counter
	OutboxPublishDuration prometheus.Histogram
}

// New registers metrics on the default Prometheus registry. Call it once per process.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers metrics on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ghgledger_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RecordsDerived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ghgledger_records_derived_total",
			Help: "Total number of emission records derived, labeled by scope",
		}, []string{"scope"}),
		FactorResolveMiss: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_factor_resolution_failures_total",
			Help: "Total number of derivations or corrections rejected because no factor was valid",
		}),
		RecordsCorrected: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_records_corrected_total",
			Help: "Total number of committed corrections",
		}),
		RecordsDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ghgledger_records_deleted_total",
			Help: "Total number of deleted records, labeled by whether an audit entry was written",
		}, []string{"audited"}),
		AuditEntriesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_audit_entries_total",
			Help: "Total number of audit log entries appended",
		}),
		FactorsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_factors_created_total",
			Help: "Total number of emission factors created",
		}),
		FactorsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_factors_rejected_total",
			Help: "Total number of factors rejected for an overlapping validity window",
		}),
		FactorCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_factor_cache_hits_total",
			Help: "Factor resolutions served from cache",
		}),
		FactorCacheMiss: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_factor_cache_misses_total",
			Help: "Factor resolutions that fell through to the store",
		}),
		ReportLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ghgledger_report_latency_seconds",
			Help:    "Latency of report queries in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"report"}),
		OutboxPending: f.NewGauge(prometheus.GaugeOpts{
			Name: "ghgledger_outbox_pending",
			Help: "Current number of audit outbox entries not yet published",
		}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_outbox_published_total",
			Help: "Total number of audit outbox entries published to Kafka",
		}),
		OutboxPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ghgledger_outbox_publish_failures_total",
			Help: "Total number of failed outbox fetches or publishes",
		}),
		OutboxPublishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ghgledger_outbox_publish_duration_seconds",
			Help:    "Time taken to publish one outbox entry",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func (m *Metrics) IncrementRecordsDerived(scope string) {
	m.RecordsDerived.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncrementFactorResolveMiss() {
	m.FactorResolveMiss.Inc()
}

func (m *Metrics) IncrementRecordsCorrected() {
	m.RecordsCorrected.Inc()
}

// IncrementRecordsDeleted labels the deletion by whether it left an audit entry.
func (m *Metrics) IncrementRecordsDeleted(audited bool) {
	label := "false"
	if audited {
		label = "true"
	}
	m.RecordsDeleted.WithLabelValues(label).Inc()
}

func (m *Metrics) AddAuditEntries(n int) {
	m.AuditEntriesWritten.Add(float64(n))
}

func (m *Metrics) IncrementFactorsCreated() {
	m.FactorsCreated.Inc()
}

func (m *Metrics) IncrementFactorsRejected() {
	m.FactorsRejected.Inc()
}

func (m *Metrics) IncrementFactorCacheHit() {
	m.FactorCacheHits.Inc()
}

func (m *Metrics) IncrementFactorCacheMiss() {
	m.FactorCacheMiss.Inc()
}

// ObserveReportLatency records the latency for a named report query
func (m *Metrics) ObserveReportLatency(report string, durationSeconds float64) {
	m.ReportLatency.WithLabelValues(report).Observe(durationSeconds)
}

func (m *Metrics) SetOutboxPending(n int64) {
	m.OutboxPending.Set(float64(n))
}

func (m *Metrics) IncrementOutboxPublished() {
	m.OutboxPublished.Inc()
}

func (m *Metrics) IncrementOutboxPublishFailures() {
	m.OutboxPublishFailures.Inc()
}

func (m *Metrics) ObserveOutboxPublishDuration(durationSeconds float64) {
	m.OutboxPublishDuration.Observe(durationSeconds)
}
