package models

import (
	"math"
	"strings"

	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/validation"
)

// Metric is a business denominator such as revenue or production volume,
// keyed by name and date.
type Metric struct {
	ID    domain.MetricID `json:"id"`
	Date  domain.Date     `json:"metric_date"`
	Name  string          `json:"metric_name"`
	Value float64         `json:"value"`
}

type CreateMetricRequest struct {
	Date  domain.Date `json:"metric_date"`
	Name  string      `json:"metric_name" validate:"notblank,max=128"`
	Value *float64    `json:"value" validate:"required"`
}

func (r *CreateMetricRequest) Sanitize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateMetricRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if math.IsNaN(*r.Value) || math.IsInf(*r.Value, 0) {
		return dErrors.New(dErrors.CodeValidation, "value must be a finite number")
	}
	if r.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "metric_date is required")
	}
	return nil
}

func (r *CreateMetricRequest) ToMetric() *Metric {
	return &Metric{Date: r.Date, Name: r.Name, Value: *r.Value}
}
