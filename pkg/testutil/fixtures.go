package testutil

import (
	"time"

	metricmodels "ghgledger/internal/businessmetric/models"
	emissionmodels "ghgledger/internal/emission/models"
	factormodels "ghgledger/internal/factor/models"
	"ghgledger/pkg/domain"
)

// TestIDs provides fixed user ids for tests that attribute changes.
var TestIDs = struct {
	UserID1 domain.UserID
	UserID2 domain.UserID
}{
	UserID1: domain.UserID(101),
	UserID2: domain.UserID(202),
}

// FactorBuilder provides a fluent interface for building test factors.
type FactorBuilder struct {
	factor *factormodels.Factor
}

// NewFactor starts from a diesel factor of 2.68 kg CO2e per litre valid for 2024.
func NewFactor() *FactorBuilder {
	return &FactorBuilder{
		factor: &factormodels.Factor{
			Activity:  "Diesel",
			Unit:      "L",
			CO2eValue: 2.68,
			ValidFrom: domain.NewDate(2024, time.January, 1),
			ValidTo:   domain.NewDate(2024, time.December, 31),
		},
	}
}

func (b *FactorBuilder) WithID(id domain.FactorID) *FactorBuilder {
	b.factor.ID = id
	return b
}

func (b *FactorBuilder) WithActivity(activity string) *FactorBuilder {
	b.factor.Activity = activity
	return b
}

func (b *FactorBuilder) WithUnit(unit string) *FactorBuilder {
	b.factor.Unit = unit
	return b
}

func (b *FactorBuilder) WithValue(v float64) *FactorBuilder {
	b.factor.CO2eValue = v
	return b
}

func (b *FactorBuilder) WithSource(source string) *FactorBuilder {
	b.factor.Source = &source
	return b
}

func (b *FactorBuilder) WithWindow(from, to domain.Date) *FactorBuilder {
	b.factor.ValidFrom = from
	b.factor.ValidTo = to
	return b
}

func (b *FactorBuilder) Build() *factormodels.Factor {
	return b.factor
}

// RecordBuilder provides a fluent interface for building test records.
// Build does not derive; set the factor and emission explicitly when a
// test stores the record directly.
type RecordBuilder struct {
	record *emissionmodels.Record
}

// NewRecord starts from 100 L of diesel in Scope1 recorded on 2024-03-01.
func NewRecord() *RecordBuilder {
	return &RecordBuilder{
		record: &emissionmodels.Record{
			Scope:      domain.Scope1,
			Activity:   "Diesel",
			Unit:       "L",
			Quantity:   100,
			RecordedAt: domain.NewDate(2024, time.March, 1),
		},
	}
}

func (b *RecordBuilder) WithScope(scope domain.Scope) *RecordBuilder {
	b.record.Scope = scope
	return b
}

func (b *RecordBuilder) WithActivity(activity, unit string) *RecordBuilder {
	b.record.Activity = activity
	b.record.Unit = unit
	return b
}

func (b *RecordBuilder) WithQuantity(q float64) *RecordBuilder {
	b.record.Quantity = q
	return b
}

func (b *RecordBuilder) RecordedAt(d domain.Date) *RecordBuilder {
	b.record.RecordedAt = d
	return b
}

func (b *RecordBuilder) WithLocation(location string) *RecordBuilder {
	b.record.Location = &location
	return b
}

func (b *RecordBuilder) WithUserID(id domain.UserID) *RecordBuilder {
	b.record.UserID = &id
	return b
}

// DerivedFrom stamps a factor onto the record the way the derivation engine would.
func (b *RecordBuilder) DerivedFrom(f *factormodels.Factor) *RecordBuilder {
	b.record.Derive(f.ID, f.CO2eValue)
	return b
}

func (b *RecordBuilder) Build() *emissionmodels.Record {
	return b.record
}

// CreateRequest turns the builder's fields into an API create request.
func (b *RecordBuilder) CreateRequest() *emissionmodels.CreateRecordRequest {
	q := b.record.Quantity
	return &emissionmodels.CreateRecordRequest{
		Scope:      b.record.Scope,
		Activity:   b.record.Activity,
		Unit:       b.record.Unit,
		Quantity:   &q,
		RecordedAt: b.record.RecordedAt,
		Location:   b.record.Location,
		UserID:     b.record.UserID,
	}
}

// NewMetric builds a business metric for tests.
func NewMetric(name string, on domain.Date, value float64) *metricmodels.Metric {
	return &metricmodels.Metric{Name: name, Date: on, Value: value}
}
