// Package server provides a public API for embedding the alert analysis service.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/analysis"
	"github.com/robert-malhotra/glad-analysis/internal/api"
	"github.com/robert-malhotra/glad-analysis/internal/backend"
	"github.com/robert-malhotra/glad-analysis/internal/config"
	"github.com/robert-malhotra/glad-analysis/internal/geostore"
	"github.com/robert-malhotra/glad-analysis/internal/metrics"
	"github.com/robert-malhotra/glad-analysis/internal/response"
)

// Options configures the alert analysis server.
type Options struct {
	// APIBaseURL is the query and download API root.
	// Default: "https://production-api.globalforestwatch.org"
	APIBaseURL string

	// GeostoreBaseURL is the geostore API root.
	// Default: APIBaseURL
	GeostoreBaseURL string

	// GladDatasetID and GladIndexID identify the GLAD dataset (required).
	GladDatasetID string
	GladIndexID   string

	// TerraiDatasetID and TerraiIndexID identify the Terra-i dataset (required).
	TerraiDatasetID string
	TerraiIndexID   string

	// TerraiEncoding is "absolute_day" or "julian_day".
	// Default: "absolute_day"
	TerraiEncoding string

	// TerraiEpoch is day zero of the Terra-i day column.
	// Default: "2004-01-01"
	TerraiEpoch string

	// Timeout is the upstream request timeout.
	// Default: 30s
	Timeout time.Duration

	// RetryMax is the number of retries for failed upstream calls.
	// Default: 0
	RetryMax int

	// BoundsTTL is how long dataset date bounds are cached.
	// Default: 1h
	BoundsTTL time.Duration

	// MetricsPath serves Prometheus metrics when non-empty.
	// Default: "" (disabled)
	MetricsPath string

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is an alert analysis server that can be embedded in another application.
type Server struct {
	router  chi.Router
	service *analysis.Service
}

// New creates a new alert analysis server with the given options.
func New(opts Options) (*Server, error) {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = "https://production-api.globalforestwatch.org"
	}
	if opts.GeostoreBaseURL == "" {
		opts.GeostoreBaseURL = opts.APIBaseURL
	}
	if opts.TerraiEncoding == "" {
		opts.TerraiEncoding = alerts.EncodingAbsoluteDay.String()
	}
	if opts.TerraiEpoch == "" {
		opts.TerraiEpoch = "2004-01-01"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BoundsTTL == 0 {
		opts.BoundsTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := &config.Config{
		API: config.APIConfig{
			BaseURL:      opts.APIBaseURL,
			Timeout:      opts.Timeout,
			RetryMax:     opts.RetryMax,
			RetryWaitMin: 200 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
		},
		Geostore: config.GeostoreConfig{
			BaseURL: opts.GeostoreBaseURL,
			Timeout: opts.Timeout,
		},
		Glad: config.GladConfig{
			DatasetID: opts.GladDatasetID,
			IndexID:   opts.GladIndexID,
		},
		Terrai: config.TerraiConfig{
			DatasetID: opts.TerraiDatasetID,
			IndexID:   opts.TerraiIndexID,
			Encoding:  opts.TerraiEncoding,
			Epoch:     opts.TerraiEpoch,
		},
		Cache: config.CacheConfig{
			BoundsTTL:  opts.BoundsTTL,
			BoundsSize: 16,
		},
		Metrics: config.MetricsConfig{
			Enabled: opts.MetricsPath != "",
			Path:    opts.MetricsPath,
		},
	}

	return FromConfig(cfg, metrics.BuildInfo{}, opts.Logger)
}

// FromConfig wires the server from a loaded configuration.
func FromConfig(cfg *config.Config, build metrics.BuildInfo, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	datasets, err := config.BuildDatasets(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build datasets: %w", err)
	}

	var provider *metrics.Provider
	var observer *metrics.QueryObserver
	if cfg.Metrics.Enabled {
		provider = metrics.Init(build)
		observer = provider.Queries
	}

	queryClient := backend.NewQueryClient(cfg.API.BaseURL, backend.ClientOptions{
		Timeout:      cfg.API.Timeout,
		RetryMax:     cfg.API.RetryMax,
		RetryWaitMin: cfg.API.RetryWaitMin,
		RetryWaitMax: cfg.API.RetryWaitMax,
	}).WithLogger(logger).WithObserver(observer)

	bounds := backend.NewCachedBounds(
		backend.NewIndexBounds(queryClient),
		cfg.Cache.BoundsSize,
		cfg.Cache.BoundsTTL,
		logger,
	)

	resolver := geostore.NewClient(cfg.Geostore.BaseURL, cfg.Geostore.Timeout, cfg.API.RetryMax).
		WithLogger(logger)

	service := analysis.NewService(
		datasets,
		resolver,
		bounds,
		queryClient,
		response.NewStandardizer(cfg.API.BaseURL),
	).WithLogger(logger)

	routerOpts := api.RouterOptions{}
	if provider != nil {
		routerOpts.Metrics = provider.Handler()
		routerOpts.MetricsPath = cfg.Metrics.Path
	}
	router := api.NewRouter(api.NewHandlers(service, logger), logger, routerOpts)

	ids := make([]string, 0, datasets.Count())
	for _, ds := range datasets.All() {
		ids = append(ids, ds.DatasetID)
	}
	logger.Info("alert analysis server configured",
		"api_base_url", cfg.API.BaseURL,
		"geostore_base_url", cfg.Geostore.BaseURL,
		"datasets", ids,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	return &Server{
		router:  router,
		service: service,
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// Service returns the analysis core behind the router.
func (s *Server) Service() *analysis.Service {
	return s.service
}
