package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ghgledger/internal/factor/handler/mocks"
	"ghgledger/internal/factor/models"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
)

type FactorHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func (s *FactorHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *FactorHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFactorHandlerSuite(t *testing.T) {
	suite.Run(t, new(FactorHandlerSuite))
}

func (s *FactorHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *FactorHandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var resp map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

var sample = &models.Factor{
	ID: 1, Activity: "Diesel", Unit: "L", CO2eValue: 2.68,
	ValidFrom: domain.NewDate(2024, time.January, 1),
	ValidTo:   domain.NewDate(2024, time.December, 31),
}

func (s *FactorHandlerSuite) TestCreate() {
	s.Run("created", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.CreateFactorRequest) (*models.Factor, error) {
				s.Equal("Diesel", req.Activity)
				s.InDelta(2.68, *req.CO2eValue, 1e-9)
				return sample, nil
			})

		w := s.do(http.MethodPost, "/factors/",
			`{"activity":" Diesel ","unit":"L","co2e_value":2.68,"valid_from":"2024-01-01","valid_to":"2024-12-31"}`)
		s.Equal(http.StatusCreated, w.Code)
		s.JSONEq(`{"id":1,"activity":"Diesel","unit":"L","co2e_value":2.68,"source":null,"valid_from":"2024-01-01","valid_to":"2024-12-31"}`, w.Body.String())
	})

	s.Run("inverted window never reaches the service", func() {
		w := s.do(http.MethodPost, "/factors/",
			`{"activity":"Diesel","unit":"L","co2e_value":2.68,"valid_from":"2025-01-01","valid_to":"2024-12-31"}`)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.errorCode(w))
	})

	s.Run("malformed date", func() {
		w := s.do(http.MethodPost, "/factors/",
			`{"activity":"Diesel","unit":"L","co2e_value":2.68,"valid_from":"01/01/2024","valid_to":"2024-12-31"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("strict window conflict", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "overlaps factor 1"))
		w := s.do(http.MethodPost, "/factors/",
			`{"activity":"Diesel","unit":"L","co2e_value":2.7,"valid_from":"2024-06-01","valid_to":"2024-12-31"}`)
		s.Equal(http.StatusConflict, w.Code)
	})
}

func (s *FactorHandlerSuite) TestGetAndDelete() {
	s.service.EXPECT().Get(gomock.Any(), domain.FactorID(1)).Return(sample, nil)
	w := s.do(http.MethodGet, "/factors/1", "")
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().Get(gomock.Any(), domain.FactorID(2)).Return(nil, dErrors.New(dErrors.CodeNotFound, "factor 2 not found"))
	w = s.do(http.MethodGet, "/factors/2", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", s.errorCode(w))

	w = s.do(http.MethodGet, "/factors/abc", "")
	s.Equal(http.StatusBadRequest, w.Code)

	s.service.EXPECT().Delete(gomock.Any(), domain.FactorID(1)).Return(nil)
	w = s.do(http.MethodDelete, "/factors/1", "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"detail":"Deleted"}`, w.Body.String())
}

func (s *FactorHandlerSuite) TestList() {
	s.service.EXPECT().List(gomock.Any()).Return([]*models.Factor{}, nil)
	w := s.do(http.MethodGet, "/factors/", "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *FactorHandlerSuite) TestResolve() {
	s.Run("resolved", func() {
		s.service.EXPECT().Resolve(gomock.Any(), "Diesel", "L", domain.NewDate(2024, time.March, 1)).Return(sample, nil)
		w := s.do(http.MethodGet, "/factors/resolve?activity=Diesel&unit=L&date=2024-03-01", "")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("unresolved is 422", func() {
		s.service.EXPECT().Resolve(gomock.Any(), "Diesel", "L", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeFactorUnresolved, "no emission factor"))
		w := s.do(http.MethodGet, "/factors/resolve?activity=Diesel&unit=L&date=2030-01-01", "")
		s.Equal(http.StatusUnprocessableEntity, w.Code)
		s.Equal("factor_unresolved", s.errorCode(w))
	})

	s.Run("missing parameters", func() {
		for _, q := range []string{"unit=L&date=2024-01-01", "activity=Diesel&date=2024-01-01", "activity=Diesel&unit=L"} {
			w := s.do(http.MethodGet, "/factors/resolve?"+q, "")
			s.Equal(http.StatusBadRequest, w.Code, q)
		}
	})
}
