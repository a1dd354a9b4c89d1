package models

import (
	"ghgledger/pkg/domain"
)

// Factor converts an activity quantity in Unit to kg CO2e. It applies to
// activity dated within [ValidFrom, ValidTo], both ends inclusive.
type Factor struct {
	ID        domain.FactorID `json:"id"`
	Activity  string          `json:"activity"`
	Unit      string          `json:"unit"`
	CO2eValue float64         `json:"co2e_value"`
	Source    *string         `json:"source"`
	ValidFrom domain.Date     `json:"valid_from"`
	ValidTo   domain.Date     `json:"valid_to"`
}

// Matches reports whether the factor is keyed by activity and unit. Matching is exact.
func (f *Factor) Matches(activity, unit string) bool {
	return f.Activity == activity && f.Unit == unit
}

// AppliesOn reports whether d falls inside the validity window.
func (f *Factor) AppliesOn(d domain.Date) bool {
	return d.Within(f.ValidFrom, f.ValidTo)
}

// Overlaps reports whether [from, to] shares at least one day with the validity window.
func (f *Factor) Overlaps(from, to domain.Date) bool {
	return !f.ValidFrom.After(to) && !from.After(f.ValidTo)
}

// Key identifies the (activity, unit) pair a factor is resolved by.
type Key struct {
	Activity string
	Unit     string
}

func (f *Factor) Key() Key {
	return Key{Activity: f.Activity, Unit: f.Unit}
}

// PreferredOver breaks ties between factors that both apply on a date: the
// lowest id wins, so the earliest entered factor is stable across reads.
func (f *Factor) PreferredOver(other *Factor) bool {
	return other == nil || f.ID < other.ID
}
