package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/analysis"
	"github.com/robert-malhotra/glad-analysis/internal/response"
)

// panickingAnalyzer panics with value on every call.
type panickingAnalyzer struct {
	value any
}

func (p panickingAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*response.Document, error) {
	panic(p.value)
}

func (p panickingAnalyzer) DateRange(ctx context.Context, kind alerts.Kind) (*response.Document, error) {
	panic(p.value)
}

func (p panickingAnalyzer) Latest(ctx context.Context, kind alerts.Kind) (*response.Document, error) {
	panic(p.value)
}

// loggedRouter builds the full router with a JSON logger writing to buf.
func loggedRouter(svc Analyzer, buf *bytes.Buffer) http.Handler {
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	return NewRouter(NewHandlers(svc, logger), logger, RouterOptions{})
}

// logRecords returns the decoded log lines with the given message.
func logRecords(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var records []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("malformed log line %q: %v", sc.Text(), err)
		}
		if rec["msg"] == msg {
			records = append(records, rec)
		}
	}
	return records
}

func TestRouter_RecoversPanics(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		target  string
		wantLog string
	}{
		{"error value", errors.New("nil dataset descriptor"), "/glad-alerts?geostore=abc", "nil dataset descriptor"},
		{"string value", "bounds exhausted", "/terrai-alerts/date-range", "bounds exhausted"},
		{"other value", 42, "/glad-alerts/latest", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer
			h := loggedRouter(panickingAnalyzer{value: tt.value}, &logBuf)

			req := httptest.NewRequest("GET", tt.target, nil)
			req.Header.Set("X-Request-Id", "req-"+tt.name)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
			}
			if resp.Code != ErrCodeServerError {
				t.Errorf("code = %q, want %q", resp.Code, ErrCodeServerError)
			}
			if resp.RequestID != "req-"+tt.name {
				t.Errorf("request_id = %q, want %q", resp.RequestID, "req-"+tt.name)
			}
			if strings.Contains(resp.Description, tt.wantLog) {
				t.Errorf("panic detail leaked into response: %q", resp.Description)
			}

			panics := logRecords(t, &logBuf, "panic recovered")
			if len(panics) != 1 {
				t.Fatalf("panic log records = %d, want 1: %s", len(panics), logBuf.String())
			}
			if panics[0]["error"] != tt.wantLog {
				t.Errorf("logged error = %v, want %q", panics[0]["error"], tt.wantLog)
			}
			if path, _, _ := strings.Cut(tt.target, "?"); panics[0]["path"] != path {
				t.Errorf("logged path = %v, want %s", panics[0]["path"], path)
			}
		})
	}
}

func TestRouter_RequestID(t *testing.T) {
	var logBuf bytes.Buffer
	h := loggedRouter(&mockAnalyzer{}, &logBuf)

	req := httptest.NewRequest("GET", "/glad-alerts/latest", nil)
	req.Header.Set("X-Request-Id", "latest-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get(RequestIDHeader); got != "latest-123" {
		t.Errorf("%s = %q, want latest-123", RequestIDHeader, got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	records := logRecords(t, &logBuf, "http request")
	if len(records) != 1 || records[0]["request_id"] != "latest-123" {
		t.Errorf("request log = %v, want request_id latest-123", records)
	}

	// Without an incoming id one is generated.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/terrai-alerts/latest", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Errorf("expected a generated %s", RequestIDHeader)
	}
}

func TestRouter_LogsRoutePattern(t *testing.T) {
	tests := []struct {
		target    string
		wantRoute string
	}{
		{"/glad-alerts/admin/BRA", "/glad-alerts/admin/{iso}"},
		{"/glad-alerts/admin/BRA/12", "/glad-alerts/admin/{iso}/{adm1}"},
		{"/terrai-alerts/use/mining/7", "/terrai-alerts/use/{useType}/{useId}"},
		{"/terrai-alerts/wdpa/3302", "/terrai-alerts/wdpa/{wdpaId}"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var logBuf bytes.Buffer
			h := loggedRouter(&mockAnalyzer{}, &logBuf)

			req := httptest.NewRequest("GET", tt.target+"?period=2020-01-01,2020-02-01", nil)
			req.Header.Set("User-Agent", "alert-client")
			h.ServeHTTP(httptest.NewRecorder(), req)

			records := logRecords(t, &logBuf, "http request")
			if len(records) != 1 {
				t.Fatalf("request log records = %d, want 1", len(records))
			}
			rec := records[0]
			if rec["route"] != tt.wantRoute {
				t.Errorf("route = %v, want %s", rec["route"], tt.wantRoute)
			}
			if rec["path"] != tt.target || rec["query"] != "period=2020-01-01,2020-02-01" {
				t.Errorf("path/query = %v %v", rec["path"], rec["query"])
			}
			if rec["status"] != float64(http.StatusOK) || rec["user_agent"] != "alert-client" {
				t.Errorf("status/user_agent = %v %v", rec["status"], rec["user_agent"])
			}
			if _, ok := rec["duration"]; !ok {
				t.Error("request log is missing duration")
			}
		})
	}
}

func TestRouter_LogLevelByStatus(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    string
		wantLevel string
	}{
		{"ok", nil, "/glad-alerts/date-range", "INFO"},
		{"client error", fmt.Errorf("%w: before data", alerts.ErrOutOfRange), "/glad-alerts?geostore=abc", "INFO"},
		{"not found", nil, "/no-such-route", "INFO"},
		{"upstream failure", fmt.Errorf("%w: timeout", alerts.ErrUpstreamQuery), "/terrai-alerts/latest", "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer
			h := loggedRouter(&mockAnalyzer{err: tt.err}, &logBuf)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.target, nil))

			records := logRecords(t, &logBuf, "http request")
			if len(records) != 1 {
				t.Fatalf("request log records = %d, want 1", len(records))
			}
			if records[0]["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", records[0]["level"], tt.wantLevel)
			}
		})
	}
}
