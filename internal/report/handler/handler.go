package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ghgledger/internal/report/models"
	"ghgledger/pkg/domain"
	"ghgledger/pkg/platform/httputil"
	"ghgledger/pkg/requestcontext"
)

// Service defines the reporting operations exposed over HTTP.
type Service interface {
	YearOverYear(ctx context.Context) ([]*models.YearTotal, error)
	Hotspots(ctx context.Context, limit int) ([]*models.Hotspot, error)
	Trend(ctx context.Context, scope domain.Scope) ([]*models.TrendPoint, error)
	Intensity(ctx context.Context, name string, on domain.Date) (*models.Intensity, error)
	Reconciliation(ctx context.Context) ([]*models.ReconciliationRow, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	HotspotLimit() int
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/yoy", h.HandleYearOverYear)
		r.Get("/hotspot", h.HandleHotspots)
		r.Get("/trend", h.HandleTrend)
		r.Get("/reconciliation", h.HandleReconciliation)
		r.Get("/dashboard", h.HandleDashboard)
	})
	r.Get("/intensity", h.HandleIntensity)
}

func (h *Handler) HandleYearOverYear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.service.YearOverYear(ctx)
	if err != nil {
		h.fail(ctx, w, "year over year report failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) HandleHotspots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := httputil.QueryInt(r, "limit", h.service.HotspotLimit())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.Hotspots(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "hotspot report failed", err, "limit", limit)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var scope domain.Scope
	if raw := httputil.QueryString(r, "scope"); raw != "" {
		parsed, err := domain.ParseScope(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		scope = parsed
	}

	rows, err := h.service.Trend(ctx, scope)
	if err != nil {
		h.fail(ctx, w, "trend report failed", err, "scope", scope)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) HandleReconciliation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.service.Reconciliation(ctx)
	if err != nil {
		h.fail(ctx, w, "reconciliation report failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dashboard, err := h.service.Dashboard(ctx)
	if err != nil {
		h.fail(ctx, w, "dashboard failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

// HandleIntensity serves /intensity?metric_name=&metric_date=.
func (h *Handler) HandleIntensity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := httputil.RequiredQuery(r, "metric_name")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	on, err := httputil.QueryDate(r, "metric_date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Intensity(ctx, name, on)
	if err != nil {
		h.fail(ctx, w, "intensity report failed", err, "metric_name", name, "metric_date", on)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err, "request_id", requestcontext.RequestID(ctx))
	if httputil.IsServerError(err) {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
