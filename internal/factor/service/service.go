package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ghgledger/internal/factor/models"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	txcontext "ghgledger/pkg/platform/tx"
	"ghgledger/pkg/requestcontext"
)

// Store defines the persistence contract for the factor catalog.
// Error Contract:
// - FindByID, Delete and Resolve return sentinel.ErrNotFound when nothing matches
// - Resolve returns the lowest-id factor when several windows contain the date
type Store interface {
	Create(ctx context.Context, f *models.Factor) error
	FindByID(ctx context.Context, id domain.FactorID) (*models.Factor, error)
	List(ctx context.Context) ([]*models.Factor, error)
	Delete(ctx context.Context, id domain.FactorID) (*models.Factor, error)
	Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error)
	ListOverlapping(ctx context.Context, activity, unit string, from, to domain.Date) ([]*models.Factor, error)
}

var tracer = otel.Tracer("ghgledger/factor")

// Service owns the factor catalog: insertion, lookup and time-window resolution.
type Service struct {
	store         Store
	tx            txcontext.Runner
	logger        *slog.Logger
	metrics       *metrics.Metrics
	strictWindows bool
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

// WithTx sets the unit-of-work runner. Defaults to an in-memory lock.
func WithTx(tx txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithStrictWindows rejects factors whose validity window overlaps an existing
// factor for the same activity and unit. Off by default: overlaps are stored
// and resolved by lowest id.
func WithStrictWindows(strict bool) Option {
	return func(s *Service) {
		s.strictWindows = strict
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = txcontext.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) Create(ctx context.Context, req *models.CreateFactorRequest) (*models.Factor, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "factor is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	factor := req.ToFactor()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if s.strictWindows {
			overlapping, err := s.store.ListOverlapping(txCtx, factor.Activity, factor.Unit, factor.ValidFrom, factor.ValidTo)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check factor windows")
			}
			if len(overlapping) > 0 {
				s.incrementRejected()
				return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
					"validity window %s..%s overlaps factor %s for activity %q unit %q",
					factor.ValidFrom, factor.ValidTo, overlapping[0].ID, factor.Activity, factor.Unit))
			}
		}
		if err := s.store.Create(txCtx, factor); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create factor")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "factor created",
		"factor_id", factor.ID,
		"activity", factor.Activity,
		"unit", factor.Unit,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementFactorsCreated()
	}
	return factor, nil
}

func (s *Service) Get(ctx context.Context, id domain.FactorID) (*models.Factor, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "factor ID required")
	}
	f, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapFactorErr(err, id, "failed to load factor")
	}
	return f, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Factor, error) {
	factors, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list factors")
	}
	return factors, nil
}

// Delete removes a factor. Records derived from it keep their frozen
// emission_factor_id and ghg_emission.
func (s *Service) Delete(ctx context.Context, id domain.FactorID) error {
	if id.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "factor ID required")
	}
	f, err := s.store.Delete(ctx, id)
	if err != nil {
		return wrapFactorErr(err, id, "failed to delete factor")
	}
	s.logger.InfoContext(ctx, "factor deleted",
		"factor_id", f.ID,
		"activity", f.Activity,
		"unit", f.Unit,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Resolve returns the factor applicable to (activity, unit) on date. A miss is
// reported as CodeFactorUnresolved rather than not-found so callers can tell
// "no such record" apart from "no valid factor".
func (s *Service) Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error) {
	ctx, span := tracer.Start(ctx, "factor.Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("factor.activity", activity),
		attribute.String("factor.unit", unit),
		attribute.String("factor.date", on.String()),
	)

	if on.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date is required")
	}

	f, err := s.store.Resolve(ctx, activity, unit, on)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			span.SetStatus(codes.Error, "unresolved")
			return nil, dErrors.New(dErrors.CodeFactorUnresolved, fmt.Sprintf(
				"no emission factor for activity %q unit %q valid on %s", activity, unit, on))
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve factor")
	}
	span.SetAttributes(attribute.Int64("factor.id", int64(f.ID)))
	return f, nil
}

func (s *Service) incrementRejected() {
	if s.metrics != nil {
		s.metrics.IncrementFactorsRejected()
	}
}

func wrapFactorErr(err error, id domain.FactorID, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("factor %s not found", id))
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
