package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/metrics"
)

// ClientOptions tunes the query client's timeout and retry policy.
type ClientOptions struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// QueryClient talks to the SQL query API in front of the alert indexes.
// It implements Executor.
type QueryClient struct {
	baseURL    string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
	observer   *metrics.QueryObserver
}

// NewQueryClient creates a new query API client.
func NewQueryClient(baseURL string, opts ClientOptions) *QueryClient {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	// Hand back the final response instead of a generic "giving up" error so
	// the status and body can be reported.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = slog.Default()

	return &QueryClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: rc,
		logger:     slog.Default(),
	}
}

// WithLogger sets a custom logger for the client
func (c *QueryClient) WithLogger(logger *slog.Logger) *QueryClient {
	c.logger = logger
	c.httpClient.Logger = logger
	return c
}

// WithObserver records query outcomes in Prometheus.
func (c *QueryClient) WithObserver(o *metrics.QueryObserver) *QueryClient {
	c.observer = o
	return c
}

// Count runs a scalar count expression. A result without rows counts as zero.
func (c *QueryClient) Count(ctx context.Context, ds *alerts.Dataset, sql string, filter SpatialFilter) (int, error) {
	data, err := c.query(ctx, ds, "count", sql, filter)
	if err != nil {
		return 0, err
	}

	first := data.Get("0")
	if !first.Exists() {
		return 0, nil
	}
	value := first.Get("value")
	if !value.Exists() {
		return 0, fmt.Errorf("%w: count response has no value column", alerts.ErrUpstreamQuery)
	}
	return int(value.Int()), nil
}

// Rows runs a row expression and decodes (year, day[, value]) from each record.
func (c *QueryClient) Rows(ctx context.Context, ds *alerts.Dataset, sql string, filter SpatialFilter) ([]alerts.Row, error) {
	data, err := c.query(ctx, ds, "rows", sql, filter)
	if err != nil {
		return nil, err
	}

	records := data.Array()
	rows := make([]alerts.Row, 0, len(records))
	for i, rec := range records {
		year := rec.Get("year")
		day := rec.Get(ds.DayColumn)
		if !year.Exists() || !day.Exists() {
			return nil, fmt.Errorf("%w: row %d lacks year or %s", alerts.ErrUpstreamQuery, i, ds.DayColumn)
		}
		rows = append(rows, alerts.Row{
			Year:  int(year.Int()),
			Day:   int(day.Int()),
			Count: int(rec.Get("value").Int()),
		})
	}
	return rows, nil
}

// query executes sql and returns the "data" array of the response.
func (c *QueryClient) query(ctx context.Context, ds *alerts.Dataset, kind, sql string, filter SpatialFilter) (data gjson.Result, err error) {
	start := time.Now()
	defer func() {
		c.observer.Observe(string(ds.Kind), kind, time.Since(start), err)
	}()

	req, err := c.newRequest(ctx, ds, sql, filter)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	queryID := Fingerprint(sql)
	c.logger.DebugContext(ctx, "executing alert query",
		slog.String("dataset", ds.DatasetID),
		slog.String("query_id", queryID),
		slog.String("sql", sql),
		slog.String("geostore", filter.GeostoreID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "alert query request failed",
			slog.String("query_id", queryID),
			slog.String("error", err.Error()),
		)
		return gjson.Result{}, fmt.Errorf("%w: %v", alerts.ErrUpstreamQuery, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: failed to read response: %v", alerts.ErrUpstreamQuery, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "alert query returned non-200 status",
			slog.String("query_id", queryID),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return gjson.Result{}, fmt.Errorf("%w: query API returned status %d: %s", alerts.ErrUpstreamQuery, resp.StatusCode, string(body))
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: query API returned invalid JSON", alerts.ErrUpstreamQuery)
	}
	data = gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: query API response has no data array", alerts.ErrUpstreamQuery)
	}

	c.logger.DebugContext(ctx, "alert query completed",
		slog.String("query_id", queryID),
		slog.Int("record_count", len(data.Array())),
		slog.Duration("duration", time.Since(start)),
	)
	return data, nil
}

func (c *QueryClient) newRequest(ctx context.Context, ds *alerts.Dataset, sql string, filter SpatialFilter) (*retryablehttp.Request, error) {
	endpoint := c.baseURL + "/v1/query/" + url.PathEscape(ds.DatasetID)

	if len(filter.Geometry) > 0 {
		payload, err := json.Marshal(map[string]any{
			"sql":     sql,
			"geojson": filter.Geometry,
		})
		if err != nil {
			return nil, err
		}
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	values := url.Values{}
	values.Set("sql", sql)
	if filter.GeostoreID != "" {
		values.Set("geostore", filter.GeostoreID)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Fingerprint is a short stable identifier for a query text, used to correlate logs.
func Fingerprint(sql string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(sql))
}
