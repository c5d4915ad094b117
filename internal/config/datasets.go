package config

import (
	"fmt"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// DatasetRegistry holds the alert dataset descriptors indexed by kind.
// It is built once at startup and only read afterwards.
type DatasetRegistry struct {
	datasets map[alerts.Kind]*alerts.Dataset
}

// NewDatasetRegistry creates a new empty dataset registry.
func NewDatasetRegistry() *DatasetRegistry {
	return &DatasetRegistry{
		datasets: make(map[alerts.Kind]*alerts.Dataset),
	}
}

// BuildDatasets creates the registry for the GLAD and Terra-i datasets.
func BuildDatasets(c *Config) (*DatasetRegistry, error) {
	epoch, err := time.Parse(time.DateOnly, c.Terrai.Epoch)
	if err != nil {
		return nil, fmt.Errorf("invalid Terra-i epoch: %w", err)
	}

	encoding, err := alerts.ParseEncoding(c.Terrai.Encoding)
	if err != nil {
		return nil, fmt.Errorf("invalid Terra-i encoding: %w", err)
	}

	registry := NewDatasetRegistry()

	glad := &alerts.Dataset{
		Kind:                  alerts.KindGlad,
		DatasetID:             c.Glad.DatasetID,
		IndexID:               c.Glad.IndexID,
		Encoding:              alerts.EncodingJulianDay,
		DayColumn:             "julian_day",
		SupportsConfirmedOnly: true,
	}
	if err := registry.Add(glad); err != nil {
		return nil, err
	}

	terrai := &alerts.Dataset{
		Kind:      alerts.KindTerrai,
		DatasetID: c.Terrai.DatasetID,
		IndexID:   c.Terrai.IndexID,
		Encoding:  encoding,
		DayColumn: "day",
		Epoch:     epoch.UTC(),
	}
	if err := registry.Add(terrai); err != nil {
		return nil, err
	}

	return registry, nil
}

// Add registers a dataset in the registry.
// Returns an error if a dataset of the same kind already exists.
func (r *DatasetRegistry) Add(ds *alerts.Dataset) error {
	if ds == nil {
		return fmt.Errorf("cannot add nil dataset")
	}

	if ds.DatasetID == "" || ds.IndexID == "" {
		return fmt.Errorf("dataset %q requires dataset and index IDs", ds.Kind)
	}

	if _, exists := r.datasets[ds.Kind]; exists {
		return fmt.Errorf("dataset %q already exists", ds.Kind)
	}

	r.datasets[ds.Kind] = ds
	return nil
}

// Get retrieves a dataset by kind.
// Returns nil if the dataset does not exist.
func (r *DatasetRegistry) Get(kind alerts.Kind) *alerts.Dataset {
	return r.datasets[kind]
}

// All returns all datasets in the registry.
func (r *DatasetRegistry) All() []*alerts.Dataset {
	datasets := make([]*alerts.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		datasets = append(datasets, ds)
	}
	return datasets
}

// Count returns the number of datasets in the registry.
func (r *DatasetRegistry) Count() int {
	return len(r.datasets)
}
