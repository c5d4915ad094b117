// Package integration provides live integration tests against the alert APIs.
// Run with: GLAD_DATASET_ID=... GLAD_INDEX_ID=... TERRAI_DATASET_ID=... TERRAI_INDEX_ID=... \
// go test -v ./internal/integration -tags=integration
//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/backend"
	"github.com/robert-malhotra/glad-analysis/internal/config"
	"github.com/robert-malhotra/glad-analysis/internal/metrics"
	"github.com/robert-malhotra/glad-analysis/pkg/server"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{"GLAD_DATASET_ID", "GLAD_INDEX_ID", "TERRAI_DATASET_ID", "TERRAI_INDEX_ID"} {
		if os.Getenv(key) == "" {
			t.Skipf("%s not set", key)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := loadConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.FromConfig(cfg, metrics.BuildInfo{}, logger)
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestIndexBounds(t *testing.T) {
	cfg := loadConfig(t)
	datasets, err := config.BuildDatasets(cfg)
	if err != nil {
		t.Fatalf("failed to build datasets: %v", err)
	}

	client := backend.NewQueryClient(cfg.API.BaseURL, backend.ClientOptions{
		Timeout:  60 * time.Second,
		RetryMax: 1,
	})
	bounds := backend.NewIndexBounds(client)

	for _, kind := range []alerts.Kind{alerts.KindGlad, alerts.KindTerrai} {
		t.Run(string(kind), func(t *testing.T) {
			b, err := bounds.MinMax(context.Background(), datasets.Get(kind))
			if err != nil {
				t.Fatalf("MinMax failed: %v", err)
			}
			if b.MinYear > b.MaxYear {
				t.Errorf("reversed bounds: %+v", b)
			}
			t.Logf("%s bounds: %+v", kind, b)
		})
	}
}

func TestLatestEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/glad-alerts/latest", "/terrai-alerts/latest", "/glad-alerts/date-range"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
			}

			var doc map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			attrs := doc["data"].(map[string]any)["attributes"].(map[string]any)
			if attrs["maxDate"] == "" {
				t.Error("expected maxDate")
			}
		})
	}
}

func TestAdminAnalysis(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/glad-alerts/admin/BRA?period=2019-01-01,2019-03-31")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}
