// Package alerts holds the domain types shared by the analysis pipeline.
package alerts

import (
	"fmt"
	"time"
)

// Kind identifies one of the supported alert datasets.
type Kind string

const (
	KindGlad   Kind = "glad"
	KindTerrai Kind = "terrai"
)

// Encoding is the native within-year temporal key of a dataset.
type Encoding int

const (
	// EncodingJulianDay stores the day of year (1..366) next to the year.
	EncodingJulianDay Encoding = iota
	// EncodingAbsoluteDay stores whole days elapsed since the dataset epoch.
	EncodingAbsoluteDay
)

// ParseEncoding maps a configured encoding name to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "julian_day":
		return EncodingJulianDay, nil
	case "absolute_day":
		return EncodingAbsoluteDay, nil
	default:
		return 0, fmt.Errorf("unknown day encoding %q, expected julian_day or absolute_day", s)
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingJulianDay:
		return "julian_day"
	case EncodingAbsoluteDay:
		return "absolute_day"
	default:
		return "unknown"
	}
}

// Dataset describes an alert index. Values are built once at startup and never mutated.
type Dataset struct {
	Kind      Kind
	DatasetID string // id used by the query and download APIs
	IndexID   string // table/index name referenced in query expressions
	Encoding  Encoding
	DayColumn string // "julian_day" or "day"

	// SupportsConfirmedOnly allows the confirmed-only filter.
	SupportsConfirmedOnly bool

	// Epoch is day zero for EncodingAbsoluteDay; ignored otherwise.
	Epoch time.Time
}

// ResponseType is the document type emitted for this dataset, e.g. "glad-alerts".
func (d *Dataset) ResponseType() string {
	return string(d.Kind) + "-alerts"
}
