// Package http exposes the prediction service over a chi router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree.  Nil members are skipped.
type RouterConfig struct {
	PredictionHandler *handlers.PredictionHandler
	HealthHandler     *handlers.HealthHandler

	Logger         logging.Logger
	LoggingConfig  *middleware.LoggingConfig
	RequestMetrics middleware.RequestRecorder

	// MetricsHandler is mounted at MetricsPath (default /metrics).
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.Logger != nil {
		lc := middleware.DefaultLoggingConfig()
		if cfg.LoggingConfig != nil {
			lc = *cfg.LoggingConfig
		}
		r.Use(middleware.RequestLogging(cfg.Logger, lc))
	}
	if cfg.RequestMetrics != nil {
		r.Use(middleware.RequestMetrics(cfg.RequestMetrics))
	}
	r.Use(chimw.Recoverer)

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerPredictionRoutes(api, cfg.PredictionHandler)
	})
	return r
}

func registerPredictionRoutes(r chi.Router, h *handlers.PredictionHandler) {
	if h == nil {
		return
	}
	r.Post("/predictions", h.Predict)
	r.Get("/model", h.Model)
	r.Get("/treatments", h.Treatments)
}

//Personal.AI order the ending
