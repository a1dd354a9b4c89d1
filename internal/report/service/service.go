package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	metricmodels "ghgledger/internal/businessmetric/models"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/report/models"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/requestcontext"
)

// Store runs the aggregations. Every method is read-only.
type Store interface {
	YearOverYear(ctx context.Context) ([]*models.YearTotal, error)
	Hotspots(ctx context.Context, limit int) ([]*models.Hotspot, error)
	Trend(ctx context.Context, scope domain.Scope) ([]*models.TrendPoint, error)
	TotalOnDate(ctx context.Context, on domain.Date) (float64, error)
	Reconciliation(ctx context.Context) ([]*models.ReconciliationRow, error)
}

// MetricLookup finds a business metric by name and date, reporting a miss
// with dErrors.CodeNotFound.
type MetricLookup interface {
	Lookup(ctx context.Context, name string, on domain.Date) (*metricmodels.Metric, error)
}

var tracer = otel.Tracer("ghgledger/report")

// Service is the read-only aggregation engine.
type Service struct {
	store        Store
	metricLookup MetricLookup
	logger       *slog.Logger
	metrics      *metrics.Metrics
	hotspotLimit int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHotspotLimit sets the limit used when callers pass none.
func WithHotspotLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.hotspotLimit = limit
		}
	}
}

func New(store Store, metricLookup MetricLookup, opts ...Option) *Service {
	s := &Service{
		store:        store,
		metricLookup: metricLookup,
		hotspotLimit: models.DefaultHotspotLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// HotspotLimit is the limit applied when a caller gives none.
func (s *Service) HotspotLimit() int {
	return s.hotspotLimit
}

// YearOverYear sums emissions per (year, scope), ordered by year then scope.
func (s *Service) YearOverYear(ctx context.Context) ([]*models.YearTotal, error) {
	ctx, span, done := s.start(ctx, "yoy")
	defer done()
	rows, err := s.store.YearOverYear(ctx)
	if err != nil {
		return nil, s.internal(ctx, span, err, "failed to compute year over year totals")
	}
	return rows, nil
}

// Hotspots ranks activities by total emission, largest first, ties by name.
func (s *Service) Hotspots(ctx context.Context, limit int) ([]*models.Hotspot, error) {
	if limit == 0 {
		limit = s.hotspotLimit
	}
	if limit < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	ctx, span, done := s.start(ctx, "hotspot")
	defer done()
	span.SetAttributes(attribute.Int("report.limit", limit))
	rows, err := s.store.Hotspots(ctx, limit)
	if err != nil {
		return nil, s.internal(ctx, span, err, "failed to compute hotspots")
	}
	return rows, nil
}

// Trend sums emissions per month, optionally for one scope.
func (s *Service) Trend(ctx context.Context, scope domain.Scope) ([]*models.TrendPoint, error) {
	if scope != "" && !scope.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown scope %q", scope))
	}
	ctx, span, done := s.start(ctx, "trend")
	defer done()
	span.SetAttributes(attribute.String("report.scope", scope.String()))
	rows, err := s.store.Trend(ctx, scope)
	if err != nil {
		return nil, s.internal(ctx, span, err, "failed to compute trend")
	}
	return rows, nil
}

// Intensity divides the emissions recorded on a date by the named business
// metric for that date. A missing or zero metric is an invalid denominator.
func (s *Service) Intensity(ctx context.Context, name string, on domain.Date) (*models.Intensity, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "metric_name is required")
	}
	if on.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "metric_date is required")
	}
	ctx, span, done := s.start(ctx, "intensity")
	defer done()
	span.SetAttributes(
		attribute.String("report.metric_name", name),
		attribute.String("report.metric_date", on.String()),
	)

	metric, err := s.metricLookup.Lookup(ctx, name, on)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			span.SetStatus(codes.Error, "missing denominator")
			return nil, dErrors.New(dErrors.CodeInvalidDenominator, fmt.Sprintf("no business metric %q on %s", name, on))
		}
		return nil, s.internal(ctx, span, err, "failed to look up business metric")
	}
	if metric.Value == 0 {
		span.SetStatus(codes.Error, "zero denominator")
		return nil, dErrors.New(dErrors.CodeInvalidDenominator, fmt.Sprintf("business metric %q on %s is zero", name, on))
	}

	total, err := s.store.TotalOnDate(ctx, on)
	if err != nil {
		return nil, s.internal(ctx, span, err, "failed to total emissions")
	}
	return &models.Intensity{
		MetricName:    name,
		MetricDate:    on,
		TotalEmission: total,
		MetricValue:   metric.Value,
		Intensity:     total / metric.Value,
	}, nil
}

// Reconciliation compares each record's stored emission with the one the
// currently resolvable factor would give.
func (s *Service) Reconciliation(ctx context.Context) ([]*models.ReconciliationRow, error) {
	ctx, span, done := s.start(ctx, "reconciliation")
	defer done()
	rows, err := s.store.Reconciliation(ctx)
	if err != nil {
		return nil, s.internal(ctx, span, err, "failed to reconcile records")
	}
	var unresolved int
	for _, r := range rows {
		if r.Recalculated == nil {
			unresolved++
		}
	}
	span.SetAttributes(attribute.Int("report.rows", len(rows)), attribute.Int("report.unresolved", unresolved))
	return rows, nil
}

// Dashboard runs the year-over-year, hotspot and trend reports concurrently.
// The first failure cancels the others.
func (s *Service) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "report.Dashboard")
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)
	var result models.Dashboard
	g.Go(func() error {
		rows, err := s.YearOverYear(ctx)
		result.YearOverYear = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.Hotspots(ctx, s.hotspotLimit)
		result.Hotspots = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.Trend(ctx, "")
		result.Trend = rows
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &result, nil
}

func (s *Service) start(ctx context.Context, report string) (context.Context, trace.Span, func()) {
	ctx, span := tracer.Start(ctx, "report."+report)
	startTime := time.Now()
	return ctx, span, func() {
		if s.metrics != nil {
			s.metrics.ObserveReportLatency(report, time.Since(startTime).Seconds())
		}
		span.End()
	}
}

func (s *Service) internal(ctx context.Context, span trace.Span, err error, msg string) error {
	s.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
