// Package translate converts user-facing periods into dataset-native date ranges.
package translate

import (
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// Translator resolves request periods against a dataset's indexed bounds.
type Translator struct {
	logger *slog.Logger
}

// NewTranslator creates a new translator instance.
func NewTranslator(logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{logger: logger}
}

// Translate turns an optional "START,END" period into a DateRange bounded by
// the dataset's indexed span. An empty period selects the whole span. A period
// that only partially overlaps the span is clamped to it; one that misses it
// entirely fails with alerts.ErrOutOfRange.
//
// The returned Period is the effective (defaulted and clamped) calendar span.
func (t *Translator) Translate(ds *alerts.Dataset, period string, bounds alerts.Bounds) (alerts.DateRange, Period, error) {
	indexed := BoundsPeriod(ds, bounds)
	if indexed.Start.After(indexed.End) {
		return alerts.DateRange{}, Period{}, fmt.Errorf("%w: dataset %s reports reversed bounds", alerts.ErrOutOfRange, ds.DatasetID)
	}

	requested := indexed
	if period != "" {
		p, err := ParsePeriod(period)
		if err != nil {
			return alerts.DateRange{}, Period{}, err
		}
		requested = p
	}

	if requested.End.Before(indexed.Start) || requested.Start.After(indexed.End) {
		return alerts.DateRange{}, Period{}, fmt.Errorf("%w: %s does not overlap indexed data %s",
			alerts.ErrOutOfRange, requested, indexed)
	}

	effective := requested
	if effective.Start.Before(indexed.Start) {
		effective.Start = indexed.Start
	}
	if effective.End.After(indexed.End) {
		effective.End = indexed.End
	}
	if effective != requested {
		t.logger.Debug("clamped period to indexed data",
			slog.String("dataset", ds.DatasetID),
			slog.String("requested", requested.String()),
			slog.String("effective", effective.String()),
		)
	}

	rng := ToRange(ds, effective)
	if err := rng.Validate(); err != nil {
		return alerts.DateRange{}, Period{}, err
	}
	return rng, effective, nil
}
