package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ghgledger/internal/factor/models"
	"ghgledger/internal/factor/service/mocks"
	"ghgledger/internal/factor/store"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
)

type FactorServiceSuite struct {
	suite.Suite
	ctx     context.Context
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *store.InMemoryStore
	service *Service
}

func (s *FactorServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.store = store.NewInMemory()
	s.service = New(s.store, WithLogger(s.logger), WithMetrics(s.metrics))
}

func TestFactorServiceSuite(t *testing.T) {
	suite.Run(t, new(FactorServiceSuite))
}

func date(y int, m time.Month, d int) domain.Date { return domain.NewDate(y, m, d) }

func dieselRequest(value float64, from, to domain.Date) *models.CreateFactorRequest {
	return &models.CreateFactorRequest{
		Activity: "Diesel", Unit: "L", CO2eValue: &value,
		ValidFrom: from, ValidTo: to,
	}
}

func (s *FactorServiceSuite) TestCreate() {
	s.Run("stores a valid factor", func() {
		f, err := s.service.Create(s.ctx, dieselRequest(2.68, date(2024, 1, 1), date(2024, 12, 31)))
		s.Require().NoError(err)
		s.NotZero(f.ID)
		s.InDelta(2.68, f.CO2eValue, 1e-9)
		s.InDelta(1, testutil.ToFloat64(s.metrics.FactorsCreated), 0)
	})

	s.Run("rejects an inverted window", func() {
		_, err := s.service.Create(s.ctx, dieselRequest(2.68, date(2025, 1, 1), date(2024, 1, 1)))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("permits overlap by default", func() {
		_, err := s.service.Create(s.ctx, dieselRequest(9.0, date(2024, 6, 1), date(2024, 6, 30)))
		s.NoError(err)
	})
}

func (s *FactorServiceSuite) TestCreateStrictWindows() {
	svc := New(store.NewInMemory(), WithLogger(s.logger), WithMetrics(s.metrics), WithStrictWindows(true))

	_, err := svc.Create(s.ctx, dieselRequest(2.68, date(2024, 1, 1), date(2024, 12, 31)))
	s.Require().NoError(err)

	_, err = svc.Create(s.ctx, dieselRequest(2.70, date(2024, 12, 31), date(2025, 12, 31)))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "a shared boundary day is an overlap")
	s.InDelta(1, testutil.ToFloat64(s.metrics.FactorsRejected), 0)

	_, err = svc.Create(s.ctx, dieselRequest(2.70, date(2025, 1, 1), date(2025, 12, 31)))
	s.NoError(err, "adjacent windows do not overlap")

	other := dieselRequest(0.2, date(2024, 1, 1), date(2024, 12, 31))
	other.Unit = "kWh"
	_, err = svc.Create(s.ctx, other)
	s.NoError(err, "a different unit is a different key")
}

func (s *FactorServiceSuite) TestResolve() {
	first, err := s.service.Create(s.ctx, dieselRequest(2.68, date(2024, 1, 1), date(2024, 12, 31)))
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, dieselRequest(3.00, date(2024, 1, 1), date(2024, 12, 31)))
	s.Require().NoError(err)

	s.Run("lowest id wins when windows overlap", func() {
		f, err := s.service.Resolve(s.ctx, "Diesel", "L", date(2024, 3, 1))
		s.Require().NoError(err)
		s.Equal(first.ID, f.ID)
	})

	s.Run("no valid factor is factor_unresolved, not not_found", func() {
		_, err := s.service.Resolve(s.ctx, "Diesel", "L", date(2023, 12, 31))
		s.True(dErrors.HasCode(err, dErrors.CodeFactorUnresolved))
		s.False(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("date is required", func() {
		_, err := s.service.Resolve(s.ctx, "Diesel", "L", domain.Date{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *FactorServiceSuite) TestGetAndDelete() {
	f, err := s.service.Create(s.ctx, dieselRequest(2.68, date(2024, 1, 1), date(2024, 12, 31)))
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal("Diesel", got.Activity)

	s.Require().NoError(s.service.Delete(s.ctx, f.ID))

	_, err = s.service.Get(s.ctx, f.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, f.ID), dErrors.CodeNotFound))

	_, err = s.service.Get(s.ctx, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *FactorServiceSuite) TestStoreFailuresAreInternal() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	svc := New(mockStore, WithLogger(s.logger))
	boom := errors.New("connection reset")

	mockStore.EXPECT().Resolve(gomock.Any(), "Diesel", "L", date(2024, 1, 1)).Return(nil, boom)
	_, err := svc.Resolve(s.ctx, "Diesel", "L", date(2024, 1, 1))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, boom)

	mockStore.EXPECT().List(gomock.Any()).Return(nil, boom)
	_, err = svc.List(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	mockStore.EXPECT().FindByID(gomock.Any(), domain.FactorID(4)).Return(nil, sentinel.ErrNotFound)
	_, err = svc.Get(s.ctx, 4)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Contains(err.Error(), "factor 4 not found")

	mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)
	_, err = svc.Create(s.ctx, dieselRequest(1, date(2024, 1, 1), date(2024, 1, 2)))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
