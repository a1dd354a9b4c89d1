package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ghgledger/internal/audit"
	"ghgledger/internal/emission/models"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/platform/httputil"
	"ghgledger/pkg/requestcontext"
)

// Service defines the derivation engine operations exposed over HTTP.
type Service interface {
	Derive(ctx context.Context, req *models.CreateRecordRequest) (*models.Record, error)
	DeriveForScope(ctx context.Context, scope domain.Scope, req *models.CreateRecordRequest) (*models.Record, error)
	Correct(ctx context.Context, id domain.RecordID, req *models.CorrectRecordRequest) (*models.Record, error)
	Get(ctx context.Context, id domain.RecordID) (*models.Record, error)
	GetInScope(ctx context.Context, scope domain.Scope, id domain.RecordID) (*models.Record, error)
	List(ctx context.Context, scope domain.Scope) ([]*models.Record, error)
	Delete(ctx context.Context, id domain.RecordID) error
	DeleteInScope(ctx context.Context, scope domain.Scope, id domain.RecordID) error
	DeleteWithAudit(ctx context.Context, id domain.RecordID, req *models.DeleteWithAuditRequest) (*audit.Entry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the generic /emissions routes and one route group per scope.
func (h *Handler) Register(r chi.Router) {
	r.Route("/emissions", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleCorrect)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/delete-with-audit", h.HandleDeleteWithAudit)
	})
	for _, scope := range domain.Scopes {
		r.Route("/"+strings.ToLower(scope.String()), func(r chi.Router) {
			r.Post("/", h.scoped(scope, h.handleCreateInScope))
			r.Get("/", h.scoped(scope, h.handleListInScope))
			r.Get("/{id}", h.scoped(scope, h.handleGetInScope))
			r.Delete("/{id}", h.scoped(scope, h.handleDeleteInScope))
		})
	}
}

type scopedHandler func(scope domain.Scope, w http.ResponseWriter, r *http.Request)

func (h *Handler) scoped(scope domain.Scope, fn scopedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(scope, w, r)
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateRecordRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.Derive(ctx, req)
	if err != nil {
		h.fail(ctx, w, "derive record failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleCreateInScope(scope domain.Scope, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateRecordRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.DeriveForScope(ctx, scope, req)
	if err != nil {
		h.fail(ctx, w, "derive record failed", err, "scope", scope)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// HandleList accepts an optional ?scope= filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
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
	h.list(ctx, w, scope)
}

func (h *Handler) handleListInScope(scope domain.Scope, w http.ResponseWriter, r *http.Request) {
	h.list(r.Context(), w, scope)
}

func (h *Handler) list(ctx context.Context, w http.ResponseWriter, scope domain.Scope) {
	records, err := h.service.List(ctx, scope)
	if err != nil {
		h.fail(ctx, w, "list records failed", err, "scope", scope)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get record failed", err, "record_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleGetInScope(scope domain.Scope, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetInScope(ctx, scope, id)
	if err != nil {
		h.fail(ctx, w, "get record failed", err, "record_id", id, "scope", scope)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleCorrect applies a full replacement correction and re-derives the record.
func (h *Handler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CorrectRecordRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.Correct(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "correct record failed", err, "record_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "delete record failed", err, "record_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"detail": "Deleted"})
}

func (h *Handler) handleDeleteInScope(scope domain.Scope, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteInScope(ctx, scope, id); err != nil {
		h.fail(ctx, w, "delete record failed", err, "record_id", id, "scope", scope)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"detail": "Deleted"})
}

// HandleDeleteWithAudit responds with the record-level audit entry it wrote.
func (h *Handler) HandleDeleteWithAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.DeleteWithAuditRequest](w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.service.DeleteWithAudit(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "delete record with audit failed", err, "record_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func recordID(w http.ResponseWriter, r *http.Request) (domain.RecordID, bool) {
	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return 0, false
	}
	return id, true
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
