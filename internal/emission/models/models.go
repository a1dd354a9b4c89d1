package models

import (
	"ghgledger/pkg/domain"
)

// Record is a derived emission record. EmissionFactorID and GHGEmission are
// frozen at write time; later changes to the factor do not re-derive them.
type Record struct {
	ID               domain.RecordID `json:"id"`
	Scope            domain.Scope    `json:"scope"`
	Activity         string          `json:"activity"`
	Unit             string          `json:"unit"`
	Quantity         float64         `json:"quantity"`
	EmissionFactorID domain.FactorID `json:"emission_factor_id"`
	GHGEmission      float64         `json:"ghg_emission"`
	RecordedAt       domain.Date     `json:"recorded_at"`
	Location         *string         `json:"location"`
	UserID           *domain.UserID  `json:"user_id"`
	Version          int64           `json:"version"`
}

// Derive stamps the factor onto the record and computes its emission.
func (r *Record) Derive(factorID domain.FactorID, co2eValue float64) {
	r.EmissionFactorID = factorID
	r.GHGEmission = r.Quantity * co2eValue
}

// Snapshot captures the fields a correction may change.
func (r *Record) Snapshot() Snapshot {
	s := Snapshot{
		Scope:    r.Scope,
		Activity: r.Activity,
		Unit:     r.Unit,
		Quantity: r.Quantity,
	}
	if r.Location != nil {
		loc := *r.Location
		s.Location = &loc
	}
	if r.UserID != nil {
		uid := *r.UserID
		s.UserID = &uid
	}
	return s
}

// Apply overwrites the mutable fields with a correction.
func (r *Record) Apply(s Snapshot) {
	r.Scope = s.Scope
	r.Activity = s.Activity
	r.Unit = s.Unit
	r.Quantity = s.Quantity
	r.Location = s.Location
	r.UserID = s.UserID
}

// Describe renders the record for the record-level audit entry written
// before a delete.
func (r *Record) Describe() string {
	return "id=" + r.ID.String() +
		", " + r.Snapshot().describe() +
		", emission_factor_id=" + r.EmissionFactorID.String() +
		", ghg_emission=" + FormatFloat(r.GHGEmission) +
		", recorded_at=" + r.RecordedAt.String()
}
