package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ghgledger/internal/audit"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/platform/httputil"
	"ghgledger/pkg/requestcontext"
)

// Trail is the read side of the audit trail.
type Trail interface {
	List(ctx context.Context) ([]*audit.Entry, error)
	ListByRecord(ctx context.Context, recordID domain.RecordID) ([]*audit.Entry, error)
}

type Handler struct {
	trail  Trail
	logger *slog.Logger
}

func New(trail Trail, logger *slog.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/audit_logs", func(r chi.Router) {
		r.Get("/all", h.HandleListAll)
		r.Get("/records/{record_id}", h.HandleListByRecord)
	})
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.trail.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list audit entries failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleListByRecord returns the entries of one record, including records
// that have since been deleted.
func (h *Handler) HandleListByRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := domain.ParseRecordID(chi.URLParam(r, "record_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}

	entries, err := h.trail.ListByRecord(ctx, recordID)
	if err != nil {
		h.fail(ctx, w, "list record audit entries failed", err, "record_id", recordID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
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
