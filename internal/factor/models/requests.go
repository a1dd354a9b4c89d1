package models

import (
	"math"

	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	s "ghgledger/pkg/string"
	"ghgledger/pkg/validation"
)

// CreateFactorRequest is the payload for adding a factor to the catalog.
type CreateFactorRequest struct {
	Activity  string      `json:"activity" validate:"notblank,max=128"`
	Unit      string      `json:"unit" validate:"notblank,max=32"`
	CO2eValue *float64    `json:"co2e_value" validate:"required"`
	Source    *string     `json:"source" validate:"omitempty,max=255"`
	ValidFrom domain.Date `json:"valid_from"`
	ValidTo   domain.Date `json:"valid_to"`
}

func (r *CreateFactorRequest) Sanitize() {
	s.TrimStrings(&r.Activity, &r.Unit)
	r.Source = s.TrimOptional(r.Source)
}

func (r *CreateFactorRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if math.IsNaN(*r.CO2eValue) || math.IsInf(*r.CO2eValue, 0) {
		return dErrors.New(dErrors.CodeValidation, "co2e_value must be a finite number")
	}
	if r.ValidFrom.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "valid_from is required")
	}
	if r.ValidTo.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "valid_to is required")
	}
	if r.ValidFrom.After(r.ValidTo) {
		return dErrors.New(dErrors.CodeValidation, "valid_from must not be after valid_to")
	}
	return nil
}

// ToFactor builds an unsaved factor from a validated request.
func (r *CreateFactorRequest) ToFactor() *Factor {
	return &Factor{
		Activity:  r.Activity,
		Unit:      r.Unit,
		CO2eValue: *r.CO2eValue,
		Source:    r.Source,
		ValidFrom: r.ValidFrom,
		ValidTo:   r.ValidTo,
	}
}
