package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	emissionmodels "ghgledger/internal/emission/models"
	factormodels "ghgledger/internal/factor/models"
	"ghgledger/internal/report/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
)

// RecordSource lists emission records; an empty scope lists all of them.
type RecordSource interface {
	List(ctx context.Context, scope domain.Scope) ([]*emissionmodels.Record, error)
}

// FactorSource resolves factors, returning sentinel.ErrNotFound on a miss.
type FactorSource interface {
	Resolve(ctx context.Context, activity, unit string, on domain.Date) (*factormodels.Factor, error)
}

// InMemoryStore aggregates over the in-memory record and factor stores.
type InMemoryStore struct {
	records RecordSource
	factors FactorSource
}

func NewInMemory(records RecordSource, factors FactorSource) *InMemoryStore {
	return &InMemoryStore{records: records, factors: factors}
}

type yearScope struct {
	year  domain.Date
	scope domain.Scope
}

func (s *InMemoryStore) YearOverYear(ctx context.Context) ([]*models.YearTotal, error) {
	records, err := s.records.List(ctx, "")
	if err != nil {
		return nil, err
	}
	totals := make(map[yearScope]float64)
	for _, r := range records {
		totals[yearScope{r.RecordedAt.StartOfYear(), r.Scope}] += r.GHGEmission
	}
	out := make([]*models.YearTotal, 0, len(totals))
	for k, total := range totals {
		out = append(out, &models.YearTotal{
			Year:          k.year,
			Scope:         k.scope,
			TotalEmission: total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year.Before(out[j].Year)
		}
		return out[i].Scope < out[j].Scope
	})
	return out, nil
}

func (s *InMemoryStore) Hotspots(ctx context.Context, limit int) ([]*models.Hotspot, error) {
	records, err := s.records.List(ctx, "")
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, r := range records {
		totals[r.Activity] += r.GHGEmission
	}
	out := make([]*models.Hotspot, 0, len(totals))
	for activity, total := range totals {
		out = append(out, &models.Hotspot{Activity: activity, TotalEmission: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalEmission != out[j].TotalEmission {
			return out[i].TotalEmission > out[j].TotalEmission
		}
		return out[i].Activity < out[j].Activity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Trend(ctx context.Context, scope domain.Scope) ([]*models.TrendPoint, error) {
	records, err := s.records.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	totals := make(map[domain.Date]float64)
	for _, r := range records {
		totals[r.RecordedAt.StartOfMonth()] += r.GHGEmission
	}
	out := make([]*models.TrendPoint, 0, len(totals))
	for period, total := range totals {
		out = append(out, &models.TrendPoint{Period: period, TotalEmission: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (s *InMemoryStore) TotalOnDate(ctx context.Context, on domain.Date) (float64, error) {
	records, err := s.records.List(ctx, "")
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range records {
		if r.RecordedAt == on {
			total += r.GHGEmission
		}
	}
	return total, nil
}

func (s *InMemoryStore) Reconciliation(ctx context.Context) ([]*models.ReconciliationRow, error) {
	records, err := s.records.List(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]*models.ReconciliationRow, 0, len(records))
	for _, r := range records {
		row := &models.ReconciliationRow{
			RecordID:         r.ID,
			Scope:            r.Scope,
			Activity:         r.Activity,
			Unit:             r.Unit,
			Quantity:         r.Quantity,
			RecordedAt:       r.RecordedAt,
			EmissionFactorID: r.EmissionFactorID,
			StoredEmission:   r.GHGEmission,
		}
		f, err := s.factors.Resolve(ctx, r.Activity, r.Unit, r.RecordedAt)
		switch {
		case err == nil:
			row.Recalculate(f.ID, f.CO2eValue)
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, fmt.Errorf("resolve factor for record %s: %w", r.ID, err)
		}
		out = append(out, row)
	}
	return out, nil
}
