package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// RouterOptions configures optional routes.
type RouterOptions struct {
	// Metrics is served at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(h *Handlers, logger *slog.Logger, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Add middleware stack
	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)
		for _, kind := range []alerts.Kind{alerts.KindGlad, alerts.KindTerrai} {
			r.Route("/"+string(kind)+"-alerts", func(r chi.Router) {
				mountDataset(r, h, kind)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}

func mountDataset(r chi.Router, h *Handlers, kind alerts.Kind) {
	r.Get("/", h.Geostore(kind))
	r.Post("/", h.Geometry(kind))

	r.Get("/admin/{iso}", h.Admin(kind))
	r.Get("/admin/{iso}/{adm1}", h.Admin(kind))
	r.Get("/admin/{iso}/{adm1}/{adm2}", h.Admin(kind))

	r.Get("/use/{useType}/{useId}", h.LandUse(kind))
	r.Get("/wdpa/{wdpaId}", h.ProtectedArea(kind))

	r.Get("/date-range", h.DateRange(kind))
	r.Get("/latest", h.Latest(kind))
}
