package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ghgledger/internal/factor/models"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/platform/httputil"
	"ghgledger/pkg/requestcontext"
)

// Service defines the factor catalog operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req *models.CreateFactorRequest) (*models.Factor, error)
	Get(ctx context.Context, id domain.FactorID) (*models.Factor, error)
	List(ctx context.Context) ([]*models.Factor, error)
	Delete(ctx context.Context, id domain.FactorID) error
	Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/factors", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/resolve", h.HandleResolve)
		r.Get("/{id}", h.HandleGet)
		r.Delete("/{id}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateFactorRequest](w, r, h.logger)
	if !ok {
		return
	}

	f, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "create factor failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	factors, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list factors failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, factors)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseFactorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid factor id"))
		return
	}

	f, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get factor failed", err, "factor_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseFactorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid factor id"))
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "delete factor failed", err, "factor_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"detail": "Deleted"})
}

// HandleResolve answers "which factor applies to activity/unit on date".
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	activity, err := httputil.RequiredQuery(r, "activity")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	unit, err := httputil.RequiredQuery(r, "unit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	on, err := httputil.QueryDate(r, "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if on.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "date is required"))
		return
	}

	f, err := h.service.Resolve(ctx, activity, unit, on)
	if err != nil {
		h.fail(ctx, w, "resolve factor failed", err, "activity", activity, "unit", unit, "date", on)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f)
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
