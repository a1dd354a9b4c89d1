package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ghgledger/internal/audit"
	"ghgledger/internal/emission/models"
	factormodels "ghgledger/internal/factor/models"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	txcontext "ghgledger/pkg/platform/tx"
	"ghgledger/pkg/requestcontext"
)

// Store defines the persistence contract for emission records.
// Error Contract:
// - FindByID, FindForUpdate, Update and Delete return sentinel.ErrNotFound for unknown ids
// - Create sets ID and Version=1; Update increments Version
type Store interface {
	Create(ctx context.Context, r *models.Record) error
	FindByID(ctx context.Context, id domain.RecordID) (*models.Record, error)
	FindForUpdate(ctx context.Context, id domain.RecordID) (*models.Record, error)
	List(ctx context.Context, scope domain.Scope) ([]*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
	Delete(ctx context.Context, id domain.RecordID) error
}

// FactorResolver answers which factor applies on a date. Misses are reported
// with dErrors.CodeFactorUnresolved.
type FactorResolver interface {
	Resolve(ctx context.Context, activity, unit string, on domain.Date) (*factormodels.Factor, error)
}

// AuditTrail appends entries within the caller's unit of work.
type AuditTrail interface {
	Append(ctx context.Context, entries ...*audit.Entry) error
}

var tracer = otel.Tracer("ghgledger/emission")

// Service is the derivation engine: it resolves factors for raw activity
// data, persists derived records and audits corrections and deletions.
type Service struct {
	store   Store
	factors FactorResolver
	trail   AuditTrail
	tx      txcontext.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
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

// WithTx sets the unit-of-work runner. It must be shared with the factor and
// audit stores so a correction commits or rolls back as a whole.
func WithTx(tx txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func New(store Store, factors FactorResolver, trail AuditTrail, opts ...Option) *Service {
	s := &Service{store: store, factors: factors, trail: trail}
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

// Derive resolves the factor valid on the record date and persists the record
// with ghg_emission = quantity × co2e_value.
func (s *Service) Derive(ctx context.Context, req *models.CreateRecordRequest) (*models.Record, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Scope == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "scope is required")
	}

	ctx, span := tracer.Start(ctx, "emission.Derive")
	defer span.End()
	span.SetAttributes(
		attribute.String("record.scope", req.Scope.String()),
		attribute.String("record.activity", req.Activity),
		attribute.String("record.unit", req.Unit),
	)

	record := req.ToRecord()
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		factor, err := s.resolve(txCtx, record.Activity, record.Unit, record.RecordedAt)
		if err != nil {
			return err
		}
		record.Derive(factor.ID, factor.CO2eValue)
		if err := s.store.Create(txCtx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("record.id", int64(record.ID)))
	s.logger.InfoContext(ctx, "emission record derived",
		"record_id", record.ID,
		"scope", record.Scope,
		"emission_factor_id", record.EmissionFactorID,
		"ghg_emission", record.GHGEmission,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsDerived(record.Scope.String())
	}
	return record, nil
}

// DeriveForScope is Derive for a scope-specific entry point. A request tagged
// with another scope is rejected.
func (s *Service) DeriveForScope(ctx context.Context, scope domain.Scope, req *models.CreateRecordRequest) (*models.Record, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record is required")
	}
	if err := req.ForScope(scope); err != nil {
		return nil, err
	}
	return s.Derive(ctx, req)
}

// Correct replaces a record's mutable fields, re-derives it against the factor
// valid on its recorded_at and appends one audit entry per changed field. If
// re-derivation fails nothing is written.
func (s *Service) Correct(ctx context.Context, id domain.RecordID, req *models.CorrectRecordRequest) (*models.Record, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record ID required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "correction is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "emission.Correct")
	defer span.End()
	span.SetAttributes(attribute.Int64("record.id", int64(id)))

	var (
		record  *models.Record
		entries []*audit.Entry
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		record, err = s.store.FindForUpdate(txCtx, id)
		if err != nil {
			return wrapRecordErr(err, id, "failed to load record")
		}
		if req.Version != nil && *req.Version != record.Version {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
				"record %s is at version %d, not %d", id, record.Version, *req.Version))
		}

		before := record.Snapshot()
		after := req.Snapshot()
		factor, err := s.resolve(txCtx, after.Activity, after.Unit, record.RecordedAt)
		if err != nil {
			return err
		}
		record.Apply(after)
		record.Derive(factor.ID, factor.CO2eValue)
		if err := s.store.Update(txCtx, record); err != nil {
			return wrapRecordErr(err, id, "failed to update record")
		}

		entries = s.correctionEntries(txCtx, record, models.Diff(before, after), req.AuditReason(audit.DefaultReason))
		if err := s.trail.Append(txCtx, entries...); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit trail")
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("audit.entries", len(entries)))
	s.logger.InfoContext(ctx, "emission record corrected",
		"record_id", record.ID,
		"version", record.Version,
		"changed_fields", len(entries),
		"ghg_emission", record.GHGEmission,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsCorrected()
	}
	return record, nil
}

func (s *Service) correctionEntries(ctx context.Context, r *models.Record, changes []models.FieldChange, reason string) []*audit.Entry {
	changedAt := domain.DateOf(requestcontext.Now(ctx))
	entries := make([]*audit.Entry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, &audit.Entry{
			RecordID:  r.ID,
			FieldName: c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			ChangedBy: r.UserID,
			ChangedAt: changedAt,
			Reason:    &reason,
		})
	}
	return entries
}

func (s *Service) Get(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record ID required")
	}
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRecordErr(err, id, "failed to load record")
	}
	return r, nil
}

// GetInScope treats a record of another scope as missing.
func (s *Service) GetInScope(ctx context.Context, scope domain.Scope, id domain.RecordID) (*models.Record, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Scope != scope {
		return nil, notFoundInScope(id, scope)
	}
	return r, nil
}

// List returns records ordered by id; an empty scope lists every scope.
func (s *Service) List(ctx context.Context, scope domain.Scope) ([]*models.Record, error) {
	records, err := s.store.List(ctx, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

// Delete removes a record without writing an audit entry.
func (s *Service) Delete(ctx context.Context, id domain.RecordID) error {
	return s.delete(ctx, "", id)
}

// DeleteInScope is Delete for a scope-specific entry point.
func (s *Service) DeleteInScope(ctx context.Context, scope domain.Scope, id domain.RecordID) error {
	return s.delete(ctx, scope, id)
}

func (s *Service) delete(ctx context.Context, scope domain.Scope, id domain.RecordID) error {
	if id.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "record ID required")
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if scope != "" {
			r, err := s.store.FindForUpdate(txCtx, id)
			if err != nil {
				return wrapRecordErr(err, id, "failed to load record")
			}
			if r.Scope != scope {
				return notFoundInScope(id, scope)
			}
		}
		if err := s.store.Delete(txCtx, id); err != nil {
			return wrapRecordErr(err, id, "failed to delete record")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "emission record deleted",
		"record_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsDeleted(false)
	}
	return nil
}

// DeleteWithAudit appends one record-level audit entry describing the record,
// then deletes it. Both happen in one unit of work; the entry outlives the record.
func (s *Service) DeleteWithAudit(ctx context.Context, id domain.RecordID, req *models.DeleteWithAuditRequest) (*audit.Entry, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record ID required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "emission.DeleteWithAudit")
	defer span.End()
	span.SetAttributes(attribute.Int64("record.id", int64(id)))

	var entry *audit.Entry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.store.FindForUpdate(txCtx, id)
		if err != nil {
			return wrapRecordErr(err, id, "failed to load record")
		}
		snapshot := r.Describe()
		reason := req.Reason
		entry = &audit.Entry{
			RecordID:  r.ID,
			FieldName: audit.FieldAll,
			OldValue:  &snapshot,
			ChangedBy: req.ChangedBy,
			ChangedAt: domain.DateOf(requestcontext.Now(txCtx)),
			Reason:    &reason,
		}
		if err := s.trail.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit trail")
		}
		if err := s.store.Delete(txCtx, id); err != nil {
			return wrapRecordErr(err, id, "failed to delete record")
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.InfoContext(ctx, "emission record deleted with audit",
		"record_id", id,
		"audit_entry_id", entry.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsDeleted(true)
	}
	return entry, nil
}

func (s *Service) resolve(ctx context.Context, activity, unit string, on domain.Date) (*factormodels.Factor, error) {
	f, err := s.factors.Resolve(ctx, activity, unit, on)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeFactorUnresolved) && s.metrics != nil {
			s.metrics.IncrementFactorResolveMiss()
		}
		return nil, err
	}
	return f, nil
}

func notFoundInScope(id domain.RecordID, scope domain.Scope) error {
	return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("record %s not found in %s", id, scope))
}

func wrapRecordErr(err error, id domain.RecordID, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("record %s not found", id))
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
