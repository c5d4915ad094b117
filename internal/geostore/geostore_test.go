package geostore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

func newTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/v1/geostore/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"status":404}]}`))
		case "/v1/geostore/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/v1/geostore/noid":
			_, _ = w.Write([]byte(`{"data":{"attributes":{}}}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"id":"gs-1","type":"geoStore","attributes":{"areaHa":2500.5}}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func testClient(url string) *Client {
	return NewClient(url, 5*time.Second, 0).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		scope        alerts.Scope
		wantPath     string
		wantGeostore string
		wantArea     float64
	}{
		{"geostore", alerts.GeostoreScope("abc"), "/v1/geostore/abc", "gs-1", 2500.5},
		{"country", alerts.AdminScope("bra", 0, 0), "/v2/geostore/admin/BRA", "", 2500.5},
		{"state", alerts.AdminScope("BRA", 1, 0), "/v2/geostore/admin/BRA/1", "", 2500.5},
		{"district", alerts.AdminScope("BRA", 1, 12), "/v2/geostore/admin/BRA/1/12", "", 2500.5},
		{"land use", alerts.LandUseScope("logging", "17"), "/v2/geostore/use/logging/17", "gs-1", 2500.5},
		{"wdpa", alerts.ProtectedAreaScope("555"), "/v2/geostore/wdpa/555", "gs-1", 2500.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, paths := newTestServer(t)
			got, err := testClient(srv.URL).Resolve(context.Background(), tt.scope)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(*paths) != 1 || (*paths)[0] != tt.wantPath {
				t.Errorf("paths = %v, want [%s]", *paths, tt.wantPath)
			}
			if got.GeostoreID != tt.wantGeostore {
				t.Errorf("GeostoreID = %q, want %q", got.GeostoreID, tt.wantGeostore)
			}
			if got.AreaHa != tt.wantArea {
				t.Errorf("AreaHa = %v, want %v", got.AreaHa, tt.wantArea)
			}
			if got.Scope.Kind != tt.scope.Kind {
				t.Errorf("Scope.Kind = %v, want %v", got.Scope.Kind, tt.scope.Kind)
			}
		})
	}
}

func TestResolve_GeometryPassthrough(t *testing.T) {
	srv, paths := newTestServer(t)
	raw := json.RawMessage(`{"type":"Polygon","coordinates":[]}`)

	got, err := testClient(srv.URL).Resolve(context.Background(), alerts.GeometryScope(raw))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(*paths) != 0 {
		t.Errorf("geometry scope should not call the geostore, got %v", *paths)
	}
	if got.AreaHa != 0 || got.GeostoreID != "" {
		t.Errorf("Resolve() = %+v, want no area and no geostore", got)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		scope   alerts.Scope
		wantErr error
	}{
		{"not found", alerts.GeostoreScope("missing"), ErrNotFound},
		{"server error", alerts.GeostoreScope("broken"), alerts.ErrUpstreamQuery},
		{"missing id", alerts.GeostoreScope("noid"), alerts.ErrUpstreamQuery},
		{"empty geostore", alerts.GeostoreScope(""), alerts.ErrUnsupportedScope},
		{"bad use type", alerts.LandUseScope("farming", "1"), alerts.ErrUnsupportedScope},
		{"bad iso", alerts.AdminScope("BR", 0, 0), alerts.ErrUnsupportedScope},
		{"district without state", alerts.AdminScope("BRA", 0, 3), alerts.ErrUnsupportedScope},
		{"empty wdpa", alerts.ProtectedAreaScope(""), alerts.ErrUnsupportedScope},
		{"empty geometry", alerts.GeometryScope(nil), alerts.ErrUnsupportedScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			_, err := testClient(srv.URL).Resolve(context.Background(), tt.scope)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsUseType(t *testing.T) {
	for _, u := range []string{"mining", "oilpalm", "fiber", "logging"} {
		if !IsUseType(u) {
			t.Errorf("IsUseType(%q) = false", u)
		}
	}
	if IsUseType("Mining") {
		t.Error("IsUseType should be case sensitive")
	}
}
