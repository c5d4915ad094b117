// Package geojson validates GeoJSON areas of interest posted to the alert API.
package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArea is returned for bodies that are not a usable polygonal area.
var ErrInvalidArea = errors.New("invalid geojson area")

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type feature struct {
	Type     string    `json:"type"`
	Geometry *Geometry `json:"geometry"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// MultiPolygon returns the coordinates as a MultiPolygon [][][][lon, lat].
// Returns error if geometry is not a MultiPolygon.
func (g *Geometry) MultiPolygon() ([][][][]float64, error) {
	if g.Type != "MultiPolygon" {
		return nil, fmt.Errorf("geometry is not a MultiPolygon, got %s", g.Type)
	}
	var coords [][][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal MultiPolygon coordinates: %w", err)
	}
	return coords, nil
}

// polygons returns the geometry as a list of polygons.
func (g *Geometry) polygons() ([][][][]float64, error) {
	switch g.Type {
	case "Polygon":
		p, err := g.Polygon()
		if err != nil {
			return nil, err
		}
		return [][][][]float64{p}, nil
	case "MultiPolygon":
		return g.MultiPolygon()
	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}
}

// BBox computes the bounding box of the geometry.
// Returns [west, south, east, north].
func (g *Geometry) BBox() ([]float64, error) {
	polys, err := g.polygons()
	if err != nil {
		return nil, err
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, polygon := range polys {
		for _, ring := range polygon {
			for _, point := range ring {
				if len(point) < 2 {
					continue
				}
				minLon = math.Min(minLon, point[0])
				maxLon = math.Max(maxLon, point[0])
				minLat = math.Min(minLat, point[1])
				maxLat = math.Max(maxLat, point[1])
			}
		}
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}
	return []float64{minLon, minLat, maxLon, maxLat}, nil
}

// ParseArea reads a Polygon or MultiPolygon from a Geometry, a Feature or a
// FeatureCollection. Several features are merged into one MultiPolygon.
// Every ring must have at least four positions, be closed and stay within
// WGS84 longitude/latitude ranges.
func ParseArea(raw []byte) (*Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArea, err)
	}

	var g *Geometry
	switch head.Type {
	case "Polygon", "MultiPolygon":
		g = &Geometry{}
		if err := json.Unmarshal(raw, g); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArea, err)
		}
	case "Feature":
		var f feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArea, err)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature has no geometry", ErrInvalidArea)
		}
		g = f.Geometry
	case "FeatureCollection":
		var fc featureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArea, err)
		}
		merged, err := mergeFeatures(fc.Features)
		if err != nil {
			return nil, err
		}
		g = merged
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidArea)
	default:
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidArea, head.Type)
	}

	if err := validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

func mergeFeatures(features []feature) (*Geometry, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: feature collection is empty", ErrInvalidArea)
	}
	if len(features) == 1 {
		if features[0].Geometry == nil {
			return nil, fmt.Errorf("%w: feature has no geometry", ErrInvalidArea)
		}
		return features[0].Geometry, nil
	}

	var all [][][][]float64
	for i, f := range features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature %d has no geometry", ErrInvalidArea, i)
		}
		polys, err := f.Geometry.polygons()
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrInvalidArea, i, err)
		}
		all = append(all, polys...)
	}

	coords, err := json.Marshal(all)
	if err != nil {
		return nil, err
	}
	return &Geometry{Type: "MultiPolygon", Coordinates: coords}, nil
}

func validate(g *Geometry) error {
	polys, err := g.polygons()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArea, err)
	}
	if len(polys) == 0 {
		return fmt.Errorf("%w: no polygons", ErrInvalidArea)
	}

	for pi, polygon := range polys {
		if len(polygon) == 0 {
			return fmt.Errorf("%w: polygon %d has no rings", ErrInvalidArea, pi)
		}
		for ri, ring := range polygon {
			if err := validateRing(ring); err != nil {
				return fmt.Errorf("%w: polygon %d ring %d: %v", ErrInvalidArea, pi, ri, err)
			}
		}
	}
	return nil
}

func validateRing(ring [][]float64) error {
	if len(ring) < 4 {
		return fmt.Errorf("ring has %d positions, need at least 4", len(ring))
	}
	for _, p := range ring {
		if len(p) < 2 {
			return fmt.Errorf("position has %d values", len(p))
		}
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			return fmt.Errorf("position [%g, %g] out of range", p[0], p[1])
		}
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return fmt.Errorf("ring is not closed")
	}
	return nil
}
