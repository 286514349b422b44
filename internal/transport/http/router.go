// Package httptransport assembles the public HTTP surface: shared middleware,
// health and metrics endpoints, and the module handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cnpjd/internal/platform/metrics"
	"cnpjd/internal/platform/middleware"
	"cnpjd/pkg/platform/httputil"
	"cnpjd/pkg/platform/middleware/request"
)

// Registrar is implemented by module handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps is everything NewRouter needs.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Checks are run by /healthz, keyed by dependency name.
	Checks   map[string]HealthCheck
	Handlers []Registrar
}

// NewRouter wires the middleware stack and mounts every handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(request.Context)
	r.Use(middleware.AccessLog(deps.Logger, deps.Metrics))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", healthHandler(deps.Checks))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, h := range deps.Handlers {
		h.Register(r)
	}
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		body := map[string]any{"status": "ok", "checks": report}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, body)
	}
}
