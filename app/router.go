package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tnt-tag-history/tnt-history/pkg/httpjson"
	"github.com/tnt-tag-history/tnt-history/pkg/observability"
)

// Router builds the HTTP handler. Public routes are open; everything under
// /api/admin requires an admin session and is rate limited per IP.
func (a *App) Router() http.Handler {
	m := a.Modules
	r := chi.NewRouter()
	r.Use(
		chimiddleware.RealIP,
		observability.CorrelationMiddleware,
		observability.RequestLogger(a.Observability.Logger),
		chimiddleware.Recoverer,
		m.Auth.CORS(),
		m.Category.Middleware(),
	)

	r.Get("/healthz", a.handleHealth)
	if a.Config.Observability.MetricsAddress == "" {
		r.Handle("/metrics", a.metricsHandler())
	}

	m.Auth.RegisterRoutes(r)

	admin := r.With(m.Auth.RequireAdmin, m.Auth.RateLimit())

	m.Event.RegisterRoutes(r, admin)
	m.Category.RegisterRoutes(r, admin)
	m.Player.RegisterRoutes(r, admin)
	m.Mention.RegisterRoutes(admin)
	m.Timeline.RegisterRoutes(r)

	return r
}

func (a *App) metricsHandler() http.Handler {
	if a.Observability.Registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(a.Observability.Registry, promhttp.HandlerOpts{})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.PingContext(r.Context()); err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
