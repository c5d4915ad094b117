package analysis

import "github.com/robert-malhotra/glad-analysis/internal/alerts"

// Request is an analysis request for one dataset. It is implemented by
// GladRequest and TerraiRequest only.
type Request interface {
	Dataset() alerts.Kind
	Params() Common
	confirmedOnly() bool
}

// Common holds the parameters shared by every dataset.
type Common struct {
	// Period is "START,END"; empty selects the whole indexed span.
	Period string
	Scope  alerts.Scope

	// Aggregate switches the value to a time series grouped by AggregateBy.
	Aggregate   bool
	AggregateBy string
}

// GladRequest analyses GLAD alerts.
type GladRequest struct {
	Common

	// ConfirmedOnly keeps only alerts at the highest confidence level.
	ConfirmedOnly bool
}

func (GladRequest) Dataset() alerts.Kind { return alerts.KindGlad }
func (r GladRequest) Params() Common { return r.Common }
func (r GladRequest) confirmedOnly() bool { return r.ConfirmedOnly }

// TerraiRequest analyses Terra-i alerts.
type TerraiRequest struct {
	Common
}

func (TerraiRequest) Dataset() alerts.Kind { return alerts.KindTerrai }
func (r TerraiRequest) Params() Common { return r.Common }
func (TerraiRequest) confirmedOnly() bool { return false }

// NewRequest builds the request variant for kind.
func NewRequest(kind alerts.Kind, c Common, confirmedOnly bool) (Request, error) {
	switch kind {
	case alerts.KindGlad:
		return GladRequest{Common: c, ConfirmedOnly: confirmedOnly}, nil
	case alerts.KindTerrai:
		return TerraiRequest{Common: c}, nil
	default:
		return nil, unknownDataset(kind)
	}
}
