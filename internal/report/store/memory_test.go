package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emissionmodels "ghgledger/internal/emission/models"
	emissionstore "ghgledger/internal/emission/store"
	factormodels "ghgledger/internal/factor/models"
	factorstore "ghgledger/internal/factor/store"
	reportmodels "ghgledger/internal/report/models"
	"ghgledger/pkg/domain"
)

type fixture struct {
	ctx     context.Context
	records *emissionstore.InMemoryStore
	factors *factorstore.InMemoryStore
	store   *InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		records: emissionstore.NewInMemory(),
		factors: factorstore.NewInMemory(),
	}
	f.store = NewInMemory(f.records, f.factors)
	return f
}

func (f *fixture) record(t *testing.T, scope domain.Scope, activity string, on domain.Date, ghg float64) *emissionmodels.Record {
	t.Helper()
	r := &emissionmodels.Record{
		Scope: scope, Activity: activity, Unit: "L", Quantity: ghg / 2,
		EmissionFactorID: 1, GHGEmission: ghg, RecordedAt: on,
	}
	require.NoError(t, f.records.Create(f.ctx, r))
	return r
}

func date(y int, m time.Month, d int) domain.Date { return domain.NewDate(y, m, d) }

func TestYearOverYear(t *testing.T) {
	f := newFixture(t)
	f.record(t, domain.Scope2, "Electricity", date(2024, time.May, 1), 10)
	f.record(t, domain.Scope1, "Diesel", date(2024, time.March, 1), 5)
	f.record(t, domain.Scope1, "Diesel", date(2024, time.June, 1), 7)
	f.record(t, domain.Scope1, "Diesel", date(2023, time.December, 31), 1)

	rows, err := f.store.YearOverYear(f.ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, date(2023, time.January, 1), rows[0].Year)
	assert.Equal(t, domain.Scope1, rows[0].Scope)
	assert.InDelta(t, 1, rows[0].TotalEmission, 1e-9)

	assert.Equal(t, date(2024, time.January, 1), rows[1].Year)
	assert.Equal(t, domain.Scope1, rows[1].Scope)
	assert.InDelta(t, 12, rows[1].TotalEmission, 1e-9)

	assert.Equal(t, date(2024, time.January, 1), rows[2].Year)
	assert.Equal(t, domain.Scope2, rows[2].Scope)
	assert.InDelta(t, 10, rows[2].TotalEmission, 1e-9)
}

func TestReportTotalsAgree(t *testing.T) {
	f := newFixture(t)
	seeded := []*emissionmodels.Record{
		f.record(t, domain.Scope1, "Diesel", date(2022, time.November, 3), 2.5),
		f.record(t, domain.Scope1, "Diesel", date(2023, time.January, 9), 4),
		f.record(t, domain.Scope2, "Electricity", date(2023, time.January, 28), 11.25),
		f.record(t, domain.Scope3, "Flights", date(2023, time.July, 14), 7),
		f.record(t, domain.Scope2, "Electricity", date(2024, time.February, 29), 3.5),
		f.record(t, domain.Scope3, "Flights", date(2024, time.February, 1), 0.75),
		f.record(t, domain.Scope1, "Diesel", date(2024, time.December, 31), 9),
	}
	var want float64
	for _, r := range seeded {
		want += r.GHGEmission
	}

	yoy, err := f.store.YearOverYear(f.ctx)
	require.NoError(t, err)
	var yoyTotal float64
	for _, row := range yoy {
		yoyTotal += row.TotalEmission
	}

	trend, err := f.store.Trend(f.ctx, "")
	require.NoError(t, err)
	trendTotal := sumTrend(trend)

	var perScope float64
	for _, scope := range []domain.Scope{domain.Scope1, domain.Scope2, domain.Scope3} {
		points, err := f.store.Trend(f.ctx, scope)
		require.NoError(t, err)
		perScope += sumTrend(points)
	}

	assert.InDelta(t, want, yoyTotal, 1e-9)
	assert.InDelta(t, want, trendTotal, 1e-9)
	assert.InDelta(t, trendTotal, perScope, 1e-9)
}

func sumTrend(points []*reportmodels.TrendPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.TotalEmission
	}
	return total
}

func TestHotspots(t *testing.T) {
	f := newFixture(t)
	on := date(2024, time.March, 1)
	f.record(t, domain.Scope1, "Diesel", on, 5)
	f.record(t, domain.Scope1, "Diesel", on, 5)
	f.record(t, domain.Scope2, "Electricity", on, 10)
	f.record(t, domain.Scope3, "Flights", on, 3)

	rows, err := f.store.Hotspots(f.ctx, 5)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Diesel", rows[0].Activity, "ties break by activity name")
	assert.Equal(t, "Electricity", rows[1].Activity)
	assert.Equal(t, "Flights", rows[2].Activity)

	rows, err = f.store.Hotspots(f.ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestTrend(t *testing.T) {
	f := newFixture(t)
	f.record(t, domain.Scope1, "Diesel", date(2024, time.March, 20), 5)
	f.record(t, domain.Scope1, "Diesel", date(2024, time.March, 2), 1)
	f.record(t, domain.Scope2, "Electricity", date(2024, time.January, 5), 10)

	rows, err := f.store.Trend(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, date(2024, time.January, 1), rows[0].Period)
	assert.Equal(t, date(2024, time.March, 1), rows[1].Period)
	assert.InDelta(t, 6, rows[1].TotalEmission, 1e-9)

	rows, err = f.store.Trend(f.ctx, domain.Scope2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 10, rows[0].TotalEmission, 1e-9)
}

func TestTotalOnDate(t *testing.T) {
	f := newFixture(t)
	on := date(2024, time.March, 1)
	f.record(t, domain.Scope1, "Diesel", on, 5)
	f.record(t, domain.Scope2, "Electricity", on, 10)
	f.record(t, domain.Scope2, "Electricity", date(2024, time.March, 2), 100)

	total, err := f.store.TotalOnDate(f.ctx, on)
	require.NoError(t, err)
	assert.InDelta(t, 15, total, 1e-9)

	total, err = f.store.TotalOnDate(f.ctx, date(2020, time.January, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0, total, 0)
}

func TestReconciliation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.factors.Create(f.ctx, &factormodels.Factor{
		Activity: "Diesel", Unit: "L", CO2eValue: 3,
		ValidFrom: date(2024, time.January, 1), ValidTo: date(2024, time.December, 31),
	}))
	resolvable := f.record(t, domain.Scope1, "Diesel", date(2024, time.March, 1), 10)
	orphan := f.record(t, domain.Scope1, "Coal", date(2024, time.March, 1), 4)

	rows, err := f.store.Reconciliation(f.ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, resolvable.ID, rows[0].RecordID)
	require.NotNil(t, rows[0].Recalculated)
	assert.InDelta(t, 15, *rows[0].Recalculated, 1e-9)
	assert.InDelta(t, 5, *rows[0].Difference, 1e-9)
	assert.InDelta(t, 10, rows[0].StoredEmission, 1e-9)

	assert.Equal(t, orphan.ID, rows[1].RecordID)
	assert.Nil(t, rows[1].Recalculated)
	assert.Nil(t, rows[1].CurrentFactorID)
}
