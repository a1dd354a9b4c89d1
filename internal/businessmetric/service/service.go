package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ghgledger/internal/businessmetric/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/requestcontext"
)

// Store defines persistence for business metrics.
// FindByNameDate returns the lowest-id match or sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, m *models.Metric) error
	List(ctx context.Context) ([]*models.Metric, error)
	Delete(ctx context.Context, id domain.MetricID) error
	FindByNameDate(ctx context.Context, name string, on domain.Date) (*models.Metric, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) Create(ctx context.Context, req *models.CreateMetricRequest) (*models.Metric, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "metric is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m := req.ToMetric()
	if err := s.store.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create business metric")
	}
	s.logger.InfoContext(ctx, "business metric created",
		"metric_id", m.ID,
		"metric_name", m.Name,
		"metric_date", m.Date,
		"request_id", requestcontext.RequestID(ctx),
	)
	return m, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Metric, error) {
	metrics, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list business metrics")
	}
	return metrics, nil
}

func (s *Service) Delete(ctx context.Context, id domain.MetricID) error {
	if id.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "metric ID required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("business metric %s not found", id))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete business metric")
	}
	s.logger.InfoContext(ctx, "business metric deleted",
		"metric_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Lookup finds the metric named name on date, reporting a miss as not found.
func (s *Service) Lookup(ctx context.Context, name string, on domain.Date) (*models.Metric, error) {
	m, err := s.store.FindByNameDate(ctx, name, on)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no business metric %q on %s", name, on))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up business metric")
	}
	return m, nil
}
