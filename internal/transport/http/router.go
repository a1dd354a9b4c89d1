package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ghgledger/internal/platform/middleware"
	dErrors "ghgledger/pkg/domain-errors"
	"ghgledger/pkg/platform/httputil"
)

// Module is a feature handler that mounts its own routes.
type Module interface {
	Register(r chi.Router)
}

// RouterConfig carries what the shared middleware stack needs.
type RouterConfig struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	Latency        middleware.LatencyObserver
	// Gatherer backs /internal/metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter wires the middleware stack, the operational endpoints and every
// feature module.
func NewRouter(cfg RouterConfig, health Module, modules ...Module) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Latency(cfg.Latency))

	health.Register(r)
	r.Handle("/internal/metrics", metricsHandler(cfg.Gatherer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.BodyLimit(middleware.MaxBodyBytes))
		for _, m := range modules {
			m.Register(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	})

	return r
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
