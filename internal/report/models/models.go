package models

import (
	"ghgledger/pkg/domain"
)

// DefaultHotspotLimit is the number of activities ranked when no limit is given.
const DefaultHotspotLimit = 5

// YearTotal is the emission total for one scope in one calendar year.
// Year is the first day of the year.
type YearTotal struct {
	Year          domain.Date  `json:"year"`
	Scope         domain.Scope `json:"scope"`
	TotalEmission float64      `json:"total_emission"`
}

// Hotspot is the emission total of one activity.
type Hotspot struct {
	Activity      string  `json:"activity"`
	TotalEmission float64 `json:"total_emission"`
}

// TrendPoint is the emission total of one month. Period is the first day of the month.
type TrendPoint struct {
	Period        domain.Date `json:"period"`
	TotalEmission float64     `json:"total_emission"`
}

// Intensity is total emissions on a date divided by a business metric on that date.
type Intensity struct {
	MetricName    string      `json:"metric_name"`
	MetricDate    domain.Date `json:"metric_date"`
	TotalEmission float64     `json:"total_emission"`
	MetricValue   float64     `json:"metric_value"`
	Intensity     float64     `json:"intensity"`
}

// ReconciliationRow sets a record's stored emission beside what the factor
// resolvable today would give. CurrentFactorID, Recalculated and Difference
// are nil when no factor resolves.
type ReconciliationRow struct {
	RecordID         domain.RecordID  `json:"record_id"`
	Scope            domain.Scope     `json:"scope"`
	Activity         string           `json:"activity"`
	Unit             string           `json:"unit"`
	Quantity         float64          `json:"quantity"`
	RecordedAt       domain.Date      `json:"recorded_at"`
	EmissionFactorID domain.FactorID  `json:"emission_factor_id"`
	StoredEmission   float64          `json:"stored_ghg_emission"`
	CurrentFactorID  *domain.FactorID `json:"current_factor_id"`
	Recalculated     *float64         `json:"recalculated_ghg_emission"`
	Difference       *float64         `json:"difference"`
}

// Recalculate fills the recalculated columns from the currently resolvable factor.
func (r *ReconciliationRow) Recalculate(factorID domain.FactorID, co2eValue float64) {
	recalculated := r.Quantity * co2eValue
	diff := recalculated - r.StoredEmission
	r.CurrentFactorID = &factorID
	r.Recalculated = &recalculated
	r.Difference = &diff
}

// Dashboard bundles the three summary reports.
type Dashboard struct {
	YearOverYear []*YearTotal  `json:"yoy"`
	Hotspots     []*Hotspot    `json:"hotspots"`
	Trend        []*TrendPoint `json:"trend"`
}
