package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ghgledger/internal/businessmetric/models"
	"ghgledger/internal/businessmetric/service/mocks"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
)

type MetricServiceSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	service *Service
}

func TestMetricServiceSuite(t *testing.T) {
	suite.Run(t, new(MetricServiceSuite))
}

func (s *MetricServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.service = New(s.store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *MetricServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

var march1 = domain.NewDate(2024, time.March, 1)

func (s *MetricServiceSuite) TestCreate() {
	s.Run("stored", func() {
		value := 500.0
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *models.Metric) error {
			m.ID = 4
			return nil
		})
		m, err := s.service.Create(s.ctx, &models.CreateMetricRequest{Date: march1, Name: "revenue", Value: &value})
		s.Require().NoError(err)
		s.Equal(domain.MetricID(4), m.ID)
	})

	s.Run("invalid request never reaches the store", func() {
		_, err := s.service.Create(s.ctx, &models.CreateMetricRequest{Date: march1, Name: "revenue"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("store failure", func() {
		value := 1.0
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("conn reset"))
		_, err := s.service.Create(s.ctx, &models.CreateMetricRequest{Date: march1, Name: "revenue", Value: &value})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *MetricServiceSuite) TestDelete() {
	s.store.EXPECT().Delete(gomock.Any(), domain.MetricID(1)).Return(nil)
	s.NoError(s.service.Delete(s.ctx, 1))

	s.store.EXPECT().Delete(gomock.Any(), domain.MetricID(2)).Return(sentinel.ErrNotFound)
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, 2), dErrors.CodeNotFound))

	s.True(dErrors.HasCode(s.service.Delete(s.ctx, 0), dErrors.CodeBadRequest))
}

func (s *MetricServiceSuite) TestLookup() {
	s.store.EXPECT().FindByNameDate(gomock.Any(), "revenue", march1).
		Return(&models.Metric{ID: 1, Name: "revenue", Date: march1, Value: 10}, nil)
	m, err := s.service.Lookup(s.ctx, "revenue", march1)
	s.Require().NoError(err)
	s.InDelta(10, m.Value, 0)

	s.store.EXPECT().FindByNameDate(gomock.Any(), "units", march1).Return(nil, sentinel.ErrNotFound)
	_, err = s.service.Lookup(s.ctx, "units", march1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
