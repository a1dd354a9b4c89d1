package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ghgledger/internal/businessmetric/models"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/platform/httputil"
	"ghgledger/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, req *models.CreateMetricRequest) (*models.Metric, error)
	List(ctx context.Context) ([]*models.Metric, error)
	Delete(ctx context.Context, id domain.MetricID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/metrics", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Delete("/{id}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateMetricRequest](w, r, h.logger)
	if !ok {
		return
	}

	m, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "create business metric failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list business metrics failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, metrics)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseMetricID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid metric id"))
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "delete business metric failed", err, "metric_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"detail": "Deleted"})
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
