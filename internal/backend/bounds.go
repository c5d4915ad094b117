package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/query"
)

// IndexBounds looks up a dataset's bounds by querying its first and last keys.
type IndexBounds struct {
	exec Executor
}

// NewIndexBounds creates a bounds lookup backed by exec.
func NewIndexBounds(exec Executor) *IndexBounds {
	return &IndexBounds{exec: exec}
}

// MinMax returns the earliest and latest indexed (year, day).
func (b *IndexBounds) MinMax(ctx context.Context, ds *alerts.Dataset) (alerts.Bounds, error) {
	first, err := b.edge(ctx, ds, true)
	if err != nil {
		return alerts.Bounds{}, err
	}
	last, err := b.edge(ctx, ds, false)
	if err != nil {
		return alerts.Bounds{}, err
	}
	return alerts.Bounds{
		MinYear: first.Year,
		MinDay:  first.Day,
		MaxYear: last.Year,
		MaxDay:  last.Day,
	}, nil
}

func (b *IndexBounds) edge(ctx context.Context, ds *alerts.Dataset, ascending bool) (alerts.Row, error) {
	sql, err := query.BoundsQuery(ds, ascending)
	if err != nil {
		return alerts.Row{}, err
	}
	rows, err := b.exec.Rows(ctx, ds, sql, SpatialFilter{})
	if err != nil {
		return alerts.Row{}, err
	}
	if len(rows) == 0 {
		return alerts.Row{}, fmt.Errorf("%w: dataset %s has no indexed alerts", alerts.ErrOutOfRange, ds.DatasetID)
	}
	return rows[0], nil
}

// CachedBounds memoizes another BoundsLookup per dataset for a fixed TTL.
// The index only grows when new alerts are ingested, so a stale entry just
// hides the newest days until it expires.
type CachedBounds struct {
	next   BoundsLookup
	cache  *expirable.LRU[string, alerts.Bounds]
	logger *slog.Logger
}

// NewCachedBounds wraps next with an LRU of the given size and TTL.
// A zero TTL keeps entries until they are evicted by size.
func NewCachedBounds(next BoundsLookup, size int, ttl time.Duration, logger *slog.Logger) *CachedBounds {
	if size <= 0 {
		size = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedBounds{
		next:   next,
		cache:  expirable.NewLRU[string, alerts.Bounds](size, nil, ttl),
		logger: logger,
	}
}

// MinMax returns cached bounds when present and fresh, otherwise queries next.
func (c *CachedBounds) MinMax(ctx context.Context, ds *alerts.Dataset) (alerts.Bounds, error) {
	key := string(ds.Kind) + ":" + ds.IndexID
	if b, ok := c.cache.Get(key); ok {
		return b, nil
	}

	b, err := c.next.MinMax(ctx, ds)
	if err != nil {
		return alerts.Bounds{}, err
	}
	c.cache.Add(key, b)
	c.logger.DebugContext(ctx, "cached dataset bounds",
		slog.String("dataset", ds.DatasetID),
		slog.Int("min_year", b.MinYear),
		slog.Int("min_day", b.MinDay),
		slog.Int("max_year", b.MaxYear),
		slog.Int("max_day", b.MaxDay),
	)
	return b, nil
}
