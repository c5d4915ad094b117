package geojson

import (
	"encoding/json"
	"errors"
	"testing"
)

const square = `{"type":"Polygon","coordinates":[[[-60,-3],[-59,-3],[-59,-2],[-60,-2],[-60,-3]]]}`

func TestPolygon(t *testing.T) {
	coords := [][][]float64{
		{{-122.4, 37.8}, {-122.5, 37.8}, {-122.5, 37.9}, {-122.4, 37.9}, {-122.4, 37.8}},
	}
	coordsJSON, _ := json.Marshal(coords)
	g := &Geometry{
		Type:        "Polygon",
		Coordinates: coordsJSON,
	}

	result, err := g.Polygon()
	if err != nil {
		t.Fatalf("Polygon() error: %v", err)
	}

	if len(result) != 1 || len(result[0]) != 5 {
		t.Errorf("Polygon() structure incorrect")
	}
}

func TestPolygon_WrongType(t *testing.T) {
	g := &Geometry{Type: "MultiPolygon", Coordinates: json.RawMessage(`[]`)}
	if _, err := g.Polygon(); err == nil {
		t.Error("Polygon() should return error for non-Polygon geometry")
	}
}

func TestBBox(t *testing.T) {
	g, err := ParseArea([]byte(square))
	if err != nil {
		t.Fatalf("ParseArea() error: %v", err)
	}
	bbox, err := g.BBox()
	if err != nil {
		t.Fatalf("BBox() error: %v", err)
	}
	want := []float64{-60, -3, -59, -2}
	for i := range want {
		if bbox[i] != want[i] {
			t.Errorf("BBox() = %v, want %v", bbox, want)
			break
		}
	}
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
		wantErr  bool
	}{
		{"polygon", square, "Polygon", false},
		{
			name:     "multipolygon",
			input:    `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}`,
			wantType: "MultiPolygon",
		},
		{
			name:     "feature",
			input:    `{"type":"Feature","properties":{},"geometry":` + square + `}`,
			wantType: "Polygon",
		},
		{
			name:     "single feature collection",
			input:    `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":` + square + `}]}`,
			wantType: "Polygon",
		},
		{
			name: "feature collection merges",
			input: `{"type":"FeatureCollection","features":[` +
				`{"type":"Feature","geometry":` + square + `},` +
				`{"type":"Feature","geometry":` + square + `}]}`,
			wantType: "MultiPolygon",
		},
		{"empty collection", `{"type":"FeatureCollection","features":[]}`, "", true},
		{"feature without geometry", `{"type":"Feature","geometry":null}`, "", true},
		{"point", `{"type":"Point","coordinates":[1,2]}`, "", true},
		{"missing type", `{"coordinates":[]}`, "", true},
		{"not json", `polygon please`, "", true},
		{"open ring", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`, "", true},
		{"short ring", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[0,0]]]}`, "", true},
		{"out of range", `{"type":"Polygon","coordinates":[[[0,0],[200,0],[1,1],[0,0]]]}`, "", true},
		{"no rings", `{"type":"Polygon","coordinates":[]}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseArea([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArea) {
					t.Errorf("ParseArea() error = %v, want ErrInvalidArea", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArea() error = %v", err)
			}
			if g.Type != tt.wantType {
				t.Errorf("ParseArea() type = %s, want %s", g.Type, tt.wantType)
			}
		})
	}
}

func TestParseArea_MergedCoordinates(t *testing.T) {
	input := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","geometry":` + square + `},` +
		`{"type":"Feature","geometry":{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}}]}`

	g, err := ParseArea([]byte(input))
	if err != nil {
		t.Fatalf("ParseArea() error = %v", err)
	}
	polys, err := g.MultiPolygon()
	if err != nil {
		t.Fatalf("MultiPolygon() error = %v", err)
	}
	if len(polys) != 3 {
		t.Errorf("merged polygons = %d, want 3", len(polys))
	}
}
