// Package analysis runs alert analyses end to end: scope resolution, period
// translation, query building, execution, aggregation and response shaping.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/aggregate"
	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/backend"
	"github.com/robert-malhotra/glad-analysis/internal/geostore"
	"github.com/robert-malhotra/glad-analysis/internal/query"
	"github.com/robert-malhotra/glad-analysis/internal/response"
	"github.com/robert-malhotra/glad-analysis/internal/translate"
)

// Datasets looks up dataset descriptors by kind.
type Datasets interface {
	Get(kind alerts.Kind) *alerts.Dataset
}

// Service is the analysis core. It holds only immutable collaborators, so one
// instance serves concurrent requests.
type Service struct {
	datasets     Datasets
	resolver     geostore.Resolver
	bounds       backend.BoundsLookup
	exec         backend.Executor
	translator   *translate.Translator
	standardizer *response.Standardizer
	logger       *slog.Logger

	// groupedAggregation aggregates from per-day counts instead of alert rows.
	groupedAggregation bool
}

// NewService creates an analysis service.
func NewService(
	datasets Datasets,
	resolver geostore.Resolver,
	bounds backend.BoundsLookup,
	exec backend.Executor,
	standardizer *response.Standardizer,
) *Service {
	return &Service{
		datasets:     datasets,
		resolver:     resolver,
		bounds:       bounds,
		exec:         exec,
		translator:   translate.NewTranslator(slog.Default()),
		standardizer: standardizer,
		logger:       slog.Default(),
	}
}

// WithLogger sets a custom logger for the service
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.logger = logger
	s.translator = translate.NewTranslator(logger)
	return s
}

// WithGroupedAggregation makes aggregated requests fetch one row per day with
// its count rather than one row per alert.
func (s *Service) WithGroupedAggregation(enabled bool) *Service {
	s.groupedAggregation = enabled
	return s
}

// Analyze counts the alerts of req's dataset inside its scope and period.
func (s *Service) Analyze(ctx context.Context, req Request) (*response.Document, error) {
	start := time.Now()
	ds, err := s.dataset(req.Dataset())
	if err != nil {
		return nil, err
	}
	params := req.Params()

	if params.Period != "" {
		if _, err := translate.ParsePeriod(params.Period); err != nil {
			return nil, err
		}
	}

	resolved, err := s.resolver.Resolve(ctx, params.Scope)
	if err != nil {
		return nil, err
	}

	bounds, err := s.bounds.MinMax(ctx, ds)
	if err != nil {
		return nil, err
	}

	rng, period, err := s.translator.Translate(ds, params.Period, bounds)
	if err != nil {
		return nil, err
	}

	opts := query.Options{
		Range:         rng,
		ConfirmedOnly: req.confirmedOnly(),
		Grouped:       params.Aggregate && s.groupedAggregation,
	}
	if resolved.EmbedsAdmin() {
		admin := resolved.Scope.Admin
		opts.Admin = &admin
	}
	expr, err := query.Build(ds, opts)
	if err != nil {
		return nil, err
	}

	filter := backend.SpatialFilter{GeostoreID: resolved.GeostoreID}
	if resolved.Scope.Kind == alerts.ScopeGeometry {
		filter.Geometry = resolved.Scope.Geometry
	}

	// The download API takes no geometry, so posted areas get no export link.
	result := response.Result{
		AreaHa:       resolved.AreaHa,
		Period:       period,
		DownloadSQL:  expr.Download,
		GeostoreID:   resolved.GeostoreID,
		Downloadable: resolved.Scope.Kind != alerts.ScopeGeometry,
	}

	if params.Aggregate {
		g, _ := aggregate.ParseGranularity(params.AggregateBy)
		sql := expr.Download
		if opts.Grouped {
			sql = expr.Count
		}
		rows, err := s.exec.Rows(ctx, ds, sql, filter)
		if err != nil {
			return nil, err
		}
		result.Aggregated = true
		result.Granularity = g
		result.Buckets = aggregate.Aggregate(ds, rows, g)
		result.Count = aggregate.Total(result.Buckets)
	} else {
		count, err := s.exec.Count(ctx, ds, expr.Count, filter)
		if err != nil {
			return nil, err
		}
		result.Count = count
	}

	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("dataset", ds.DatasetID),
		slog.String("scope", resolved.Scope.Kind.String()),
		slog.String("period", period.String()),
		slog.String("query_id", backend.Fingerprint(expr.Count)),
		slog.Int("count", result.Count),
		slog.Duration("duration", time.Since(start)),
	)

	return s.standardizer.Analysis(ds, result), nil
}

// DateRange reports the first and last indexed dates of a dataset.
func (s *Service) DateRange(ctx context.Context, kind alerts.Kind) (*response.Document, error) {
	ds, minDate, maxDate, err := s.span(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.standardizer.DateRange(ds, minDate, maxDate), nil
}

// Latest reports the last indexed date of a dataset. It is always the
// maxDate of DateRange.
func (s *Service) Latest(ctx context.Context, kind alerts.Kind) (*response.Document, error) {
	ds, _, maxDate, err := s.span(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.standardizer.Latest(ds, maxDate), nil
}

func (s *Service) span(ctx context.Context, kind alerts.Kind) (*alerts.Dataset, time.Time, time.Time, error) {
	ds, err := s.dataset(kind)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	b, err := s.bounds.MinMax(ctx, ds)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	p := translate.BoundsPeriod(ds, b)
	return ds, p.Start, p.End, nil
}

func (s *Service) dataset(kind alerts.Kind) (*alerts.Dataset, error) {
	ds := s.datasets.Get(kind)
	if ds == nil {
		return nil, unknownDataset(kind)
	}
	return ds, nil
}

func unknownDataset(kind alerts.Kind) error {
	return fmt.Errorf("%w: unknown dataset %q", alerts.ErrUnsupportedScope, kind)
}
