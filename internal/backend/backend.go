// Package backend runs query expressions against the alert search backend.
package backend

import (
	"context"
	"encoding/json"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// Executor runs query expressions against an alert index.
// Both implementations and callers treat a failed call as final; retries, if
// any, happen inside the implementation.
type Executor interface {
	// Count runs a scalar count expression and returns its value.
	Count(ctx context.Context, ds *alerts.Dataset, sql string, filter SpatialFilter) (int, error)

	// Rows runs a row-level or grouped expression and returns its records.
	Rows(ctx context.Context, ds *alerts.Dataset, sql string, filter SpatialFilter) ([]alerts.Row, error)
}

// BoundsLookup reports the earliest and latest indexed (year, day) of a dataset.
type BoundsLookup interface {
	MinMax(ctx context.Context, ds *alerts.Dataset) (alerts.Bounds, error)
}

// SpatialFilter restricts a query to an area. At most one field is set; an
// empty filter leaves the query unrestricted (admin scopes are part of the SQL).
type SpatialFilter struct {
	// GeostoreID references a stored polygon.
	GeostoreID string

	// Geometry is an ad-hoc GeoJSON polygon sent with the query.
	Geometry json.RawMessage
}

// IsZero reports whether the filter is empty.
func (f SpatialFilter) IsZero() bool {
	return f.GeostoreID == "" && len(f.Geometry) == 0
}
