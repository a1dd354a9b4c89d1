package models

import (
	"math"

	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	s "ghgledger/pkg/string"
	"ghgledger/pkg/validation"
)

// CreateRecordRequest is raw activity data submitted for derivation.
// Scope may be omitted on the per-scope endpoints, which supply their own.
type CreateRecordRequest struct {
	Scope      domain.Scope   `json:"scope" validate:"omitempty,scope"`
	Activity   string         `json:"activity" validate:"notblank,max=64"`
	Unit       string         `json:"unit" validate:"notblank,max=32"`
	Quantity   *float64       `json:"quantity" validate:"required"`
	RecordedAt domain.Date    `json:"recorded_at"`
	Location   *string        `json:"location" validate:"omitempty,max=128"`
	UserID     *domain.UserID `json:"user_id" validate:"omitempty,gt=0"`
}

func (r *CreateRecordRequest) Sanitize() {
	s.TrimStrings(&r.Activity, &r.Unit)
	r.Location = s.TrimOptional(r.Location)
}

func (r *CreateRecordRequest) Normalize() {
	r.Scope = normalizeScope(r.Scope)
}

func (r *CreateRecordRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if err := validateQuantity(*r.Quantity); err != nil {
		return err
	}
	if r.RecordedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "recorded_at is required")
	}
	return nil
}

// ForScope pins the request to an entry point's scope. A request tagged with
// a different scope is rejected.
func (r *CreateRecordRequest) ForScope(scope domain.Scope) error {
	if r.Scope == "" {
		r.Scope = scope
		return nil
	}
	if r.Scope != scope {
		return dErrors.New(dErrors.CodeValidation, "scope "+r.Scope.String()+" does not match endpoint scope "+scope.String())
	}
	return nil
}

// ToRecord builds an underived record from a validated request.
func (r *CreateRecordRequest) ToRecord() *Record {
	return &Record{
		Scope:      r.Scope,
		Activity:   r.Activity,
		Unit:       r.Unit,
		Quantity:   *r.Quantity,
		RecordedAt: r.RecordedAt,
		Location:   r.Location,
		UserID:     r.UserID,
	}
}

// CorrectRecordRequest is the full replacement set for a correction.
// recorded_at is not correctable. Version enables optimistic concurrency.
type CorrectRecordRequest struct {
	Scope    domain.Scope   `json:"scope" validate:"required,scope"`
	Activity string         `json:"activity" validate:"notblank,max=64"`
	Unit     string         `json:"unit" validate:"notblank,max=32"`
	Quantity *float64       `json:"quantity" validate:"required"`
	Location *string        `json:"location" validate:"omitempty,max=128"`
	UserID   *domain.UserID `json:"user_id" validate:"omitempty,gt=0"`
	Version  *int64         `json:"version" validate:"omitempty,gt=0"`
	Reason   *string        `json:"reason" validate:"omitempty,max=512"`
}

func (r *CorrectRecordRequest) Sanitize() {
	s.TrimStrings(&r.Activity, &r.Unit)
	r.Location = s.TrimOptional(r.Location)
	r.Reason = s.TrimOptional(r.Reason)
}

func (r *CorrectRecordRequest) Normalize() {
	r.Scope = normalizeScope(r.Scope)
}

func (r *CorrectRecordRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return validateQuantity(*r.Quantity)
}

func (r *CorrectRecordRequest) Snapshot() Snapshot {
	return Snapshot{
		Scope:    r.Scope,
		Activity: r.Activity,
		Unit:     r.Unit,
		Quantity: *r.Quantity,
		Location: r.Location,
		UserID:   r.UserID,
	}
}

// AuditReason returns the caller's reason or the default correction reason.
func (r *CorrectRecordRequest) AuditReason(defaultReason string) string {
	if r.Reason == nil {
		return defaultReason
	}
	return *r.Reason
}

// DeleteWithAuditRequest carries the reason recorded before a record is removed.
type DeleteWithAuditRequest struct {
	Reason    string         `json:"reason" validate:"notblank,max=512"`
	ChangedBy *domain.UserID `json:"changed_by" validate:"omitempty,gt=0"`
}

func (r *DeleteWithAuditRequest) Sanitize() {
	s.TrimStrings(&r.Reason)
}

func (r *DeleteWithAuditRequest) Validate() error {
	return validation.Validate(r)
}

func validateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return dErrors.New(dErrors.CodeValidation, "quantity must be a finite number")
	}
	if q < 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must not be negative")
	}
	return nil
}

func normalizeScope(s domain.Scope) domain.Scope {
	if s == "" {
		return s
	}
	if parsed, err := domain.ParseScope(string(s)); err == nil {
		return parsed
	}
	return s
}
