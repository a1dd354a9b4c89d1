//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	emissionstore "ghgledger/internal/emission/store"
	factorstore "ghgledger/internal/factor/store"
	reportmodels "ghgledger/internal/report/models"
	"ghgledger/internal/report/store"
	"ghgledger/pkg/domain"
	"ghgledger/pkg/testutil"
	"ghgledger/pkg/testutil/containers"
)

type PostgresReportSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	factors  *factorstore.PostgresStore
	records  *emissionstore.PostgresStore
	store    *store.PostgresStore
}

func TestPostgresReportSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresReportSuite))
}

func (s *PostgresReportSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.factors = factorstore.NewPostgres(s.postgres.DB)
	s.records = emissionstore.NewPostgres(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB)
}

// SetupTest seeds:
//
//	1: Scope1 Diesel 5 L  on 2024-03-01, factor 1 (1.0) -> 5
//	2: Scope1 Diesel 5 L  on 2024-03-20, factor 1 (1.0) -> 5
//	3: Scope2 Power 10 kWh on 2024-04-02, factor 2 (1.0) -> 10
//	4: Scope1 Diesel 7 L  on 2025-01-15, factor 3 (2.0) -> 14
func (s *PostgresReportSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	diesel24 := testutil.NewFactor().WithValue(1).Build()
	power := testutil.NewFactor().WithActivity("Power").WithUnit("kWh").WithValue(1).Build()
	diesel25 := testutil.NewFactor().WithValue(2).
		WithWindow(domain.NewDate(2025, time.January, 1), domain.NewDate(2025, time.December, 31)).Build()
	s.Require().NoError(s.factors.Create(ctx, diesel24))
	s.Require().NoError(s.factors.Create(ctx, power))
	s.Require().NoError(s.factors.Create(ctx, diesel25))

	s.seed(ctx, testutil.NewRecord().WithQuantity(5).DerivedFrom(diesel24))
	s.seed(ctx, testutil.NewRecord().WithQuantity(5).RecordedAt(domain.NewDate(2024, time.March, 20)).DerivedFrom(diesel24))
	s.seed(ctx, testutil.NewRecord().WithScope(domain.Scope2).WithActivity("Power", "kWh").WithQuantity(10).
		RecordedAt(domain.NewDate(2024, time.April, 2)).DerivedFrom(power))
	s.seed(ctx, testutil.NewRecord().WithQuantity(7).RecordedAt(domain.NewDate(2025, time.January, 15)).DerivedFrom(diesel25))
}

func (s *PostgresReportSuite) seed(ctx context.Context, b *testutil.RecordBuilder) {
	s.Require().NoError(s.records.Create(ctx, b.Build()))
}

func (s *PostgresReportSuite) TestYearOverYear() {
	rows, err := s.store.YearOverYear(context.Background())
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal(domain.NewDate(2024, time.January, 1), rows[0].Year)
	s.Equal(domain.Scope1, rows[0].Scope)
	s.InDelta(10, rows[0].TotalEmission, 1e-9)
	s.Equal(domain.Scope2, rows[1].Scope)
	s.Equal(domain.NewDate(2025, time.January, 1), rows[2].Year)
	s.InDelta(14, rows[2].TotalEmission, 1e-9)
}

func (s *PostgresReportSuite) TestReportTotalsAgree() {
	ctx := context.Background()
	diesel, err := s.factors.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.seed(ctx, testutil.NewRecord().WithScope(domain.Scope3).WithQuantity(2.5).
		RecordedAt(domain.NewDate(2023, time.November, 30)).DerivedFrom(diesel))
	s.seed(ctx, testutil.NewRecord().WithScope(domain.Scope2).WithQuantity(0.75).
		RecordedAt(domain.NewDate(2024, time.February, 29)).DerivedFrom(diesel))
	s.seed(ctx, testutil.NewRecord().WithScope(domain.Scope3).WithQuantity(4).
		RecordedAt(domain.NewDate(2025, time.December, 31)).DerivedFrom(diesel))

	records, err := s.records.List(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(records, 7)
	var want float64
	for _, r := range records {
		want += r.GHGEmission
	}

	yoy, err := s.store.YearOverYear(ctx)
	s.Require().NoError(err)
	var yoyTotal float64
	for _, row := range yoy {
		yoyTotal += row.TotalEmission
	}

	trend, err := s.store.Trend(ctx, "")
	s.Require().NoError(err)
	trendTotal := sumTrend(trend)

	var perScope float64
	for _, scope := range []domain.Scope{domain.Scope1, domain.Scope2, domain.Scope3} {
		points, err := s.store.Trend(ctx, scope)
		s.Require().NoError(err)
		perScope += sumTrend(points)
	}

	s.InDelta(want, yoyTotal, 1e-9)
	s.InDelta(want, trendTotal, 1e-9)
	s.InDelta(trendTotal, perScope, 1e-9)
}

func sumTrend(points []*reportmodels.TrendPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.TotalEmission
	}
	return total
}

func (s *PostgresReportSuite) TestHotspotsAndTrend() {
	hotspots, err := s.store.Hotspots(context.Background(), 1)
	s.Require().NoError(err)
	s.Require().Len(hotspots, 1)
	s.Equal("Diesel", hotspots[0].Activity)
	s.InDelta(24, hotspots[0].TotalEmission, 1e-9)

	trend, err := s.store.Trend(context.Background(), domain.Scope1)
	s.Require().NoError(err)
	s.Require().Len(trend, 2)
	s.Equal(domain.NewDate(2024, time.March, 1), trend[0].Period)
	s.InDelta(10, trend[0].TotalEmission, 1e-9)
}

func (s *PostgresReportSuite) TestTotalOnDate() {
	total, err := s.store.TotalOnDate(context.Background(), domain.NewDate(2024, time.April, 2))
	s.Require().NoError(err)
	s.InDelta(10, total, 1e-9)

	total, err = s.store.TotalOnDate(context.Background(), domain.NewDate(2023, time.April, 2))
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *PostgresReportSuite) TestReconciliationFollowsCurrentFactor() {
	ctx := context.Background()
	_, err := s.factors.Delete(ctx, 2)
	s.Require().NoError(err)

	rows, err := s.store.Reconciliation(ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 4)

	s.Require().NotNil(rows[0].Recalculated)
	s.InDelta(0, *rows[0].Difference, 1e-9)
	s.Nil(rows[2].CurrentFactorID, "power factor was deleted")
	s.Nil(rows[2].Recalculated)
	s.InDelta(10, rows[2].StoredEmission, 1e-9)
}
