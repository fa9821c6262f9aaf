package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lineage/internal/genealogy/handler"
	"lineage/internal/platform/metrics"
	"lineage/internal/platform/middleware"
	"lineage/pkg/platform/httputil"
	"lineage/pkg/platform/middleware/admin"
	"lineage/pkg/platform/middleware/request"
	"lineage/pkg/platform/middleware/requesttime"
)

// requestTimeout bounds every handler; a reload over a slow source is the
// longest request.
const requestTimeout = 60 * time.Second

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the pieces the router mounts.
type Deps struct {
	Genealogy  *handler.Handler
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	AdminToken string
	Checks     map[string]HealthCheck
}

// NewRouter wires all endpoints. Handlers stay thin; everything behind them
// lives in the genealogy service.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Observe(d.Logger, d.Metrics))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", healthz(d.Checks))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	d.Genealogy.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
		d.Genealogy.RegisterAdmin(r)
	})
	return r
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
