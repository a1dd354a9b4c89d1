package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ghgledger/internal/report/handler/mocks"
	"ghgledger/internal/report/models"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
)

type ReportHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerSuite))
}

func (s *ReportHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *ReportHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ReportHandlerSuite) get(target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (s *ReportHandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var resp map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

func (s *ReportHandlerSuite) TestYearOverYear() {
	s.service.EXPECT().YearOverYear(gomock.Any()).Return([]*models.YearTotal{
		{Year: domain.NewDate(2024, time.January, 1), Scope: domain.Scope1, TotalEmission: 268},
	}, nil)

	w := s.get("/analytics/yoy")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[{"year":"2024-01-01","scope":"Scope1","total_emission":268}]`, w.Body.String())
}

func (s *ReportHandlerSuite) TestHotspots() {
	s.service.EXPECT().HotspotLimit().Return(5).AnyTimes()

	s.service.EXPECT().Hotspots(gomock.Any(), 5).Return([]*models.Hotspot{}, nil)
	s.Equal(http.StatusOK, s.get("/analytics/hotspot").Code)

	s.service.EXPECT().Hotspots(gomock.Any(), 2).Return([]*models.Hotspot{}, nil)
	s.Equal(http.StatusOK, s.get("/analytics/hotspot?limit=2").Code)

	w := s.get("/analytics/hotspot?limit=zero")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation_error", s.errorCode(w))
}

func (s *ReportHandlerSuite) TestTrend() {
	s.service.EXPECT().Trend(gomock.Any(), domain.Scope1).Return([]*models.TrendPoint{
		{Period: domain.NewDate(2024, time.March, 1), TotalEmission: 4},
	}, nil)
	w := s.get("/analytics/trend?scope=scope1")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[{"period":"2024-03-01","total_emission":4}]`, w.Body.String())

	s.Equal(http.StatusBadRequest, s.get("/analytics/trend?scope=7").Code)
}

func (s *ReportHandlerSuite) TestIntensity() {
	on := domain.NewDate(2024, time.March, 1)
	s.service.EXPECT().Intensity(gomock.Any(), "revenue", on).Return(&models.Intensity{
		MetricName: "revenue", MetricDate: on, TotalEmission: 50, MetricValue: 200, Intensity: 0.25,
	}, nil)
	w := s.get("/intensity?metric_name=revenue&metric_date=2024-03-01")
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().Intensity(gomock.Any(), "units", on).
		Return(nil, dErrors.New(dErrors.CodeInvalidDenominator, `business metric "units" on 2024-03-01 is zero`))
	w = s.get("/intensity?metric_name=units&metric_date=2024-03-01")
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("invalid_denominator", s.errorCode(w))

	s.Equal(http.StatusBadRequest, s.get("/intensity?metric_date=2024-03-01").Code)
	s.Equal(http.StatusBadRequest, s.get("/intensity?metric_name=revenue&metric_date=03-01-2024").Code)
}

func (s *ReportHandlerSuite) TestReconciliationAndDashboard() {
	s.service.EXPECT().Reconciliation(gomock.Any()).Return([]*models.ReconciliationRow{
		{RecordID: 2, Scope: domain.Scope1, Activity: "Coal", Unit: "kg", RecordedAt: domain.NewDate(2024, time.March, 1)},
	}, nil)
	w := s.get("/analytics/reconciliation")
	s.Equal(http.StatusOK, w.Code)
	var rows []map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &rows))
	s.Require().Len(rows, 1)
	s.Nil(rows[0]["recalculated_ghg_emission"])

	s.service.EXPECT().Dashboard(gomock.Any()).Return(&models.Dashboard{
		YearOverYear: []*models.YearTotal{}, Hotspots: []*models.Hotspot{}, Trend: []*models.TrendPoint{},
	}, nil)
	w = s.get("/analytics/dashboard")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"yoy":[],"hotspots":[],"trend":[]}`, w.Body.String())
}
