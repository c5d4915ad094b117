// Package geostore resolves analysis scopes to stored geometries and their area.
package geostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// ErrNotFound is returned when the geostore has no geometry for a scope.
var ErrNotFound = errors.New("geostore not found")

// UseTypes lists the land-use layers the geostore serves.
var UseTypes = []string{"mining", "oilpalm", "fiber", "logging"}

// IsUseType reports whether t is a known land-use layer.
func IsUseType(t string) bool {
	for _, u := range UseTypes {
		if u == t {
			return true
		}
	}
	return false
}

// Geometry is the part of a geostore record the analysis needs.
type Geometry struct {
	ID     string
	AreaHa float64
}

// Resolver turns a Scope into a ResolvedScope.
type Resolver interface {
	Resolve(ctx context.Context, scope alerts.Scope) (alerts.ResolvedScope, error)
}

// Client is a geostore API client. It implements Resolver.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
}

// NewClient creates a new geostore client.
func NewClient(baseURL string, timeout time.Duration, retryMax int) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: timeout}
	rc.RetryMax = retryMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = slog.Default()

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: rc,
		logger:     slog.Default(),
	}
}

// WithLogger sets a custom logger for the client
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	c.httpClient.Logger = logger
	return c
}

// Resolve looks up the area of a scope. Posted geometries are passed through
// without a lookup and carry no area.
func (c *Client) Resolve(ctx context.Context, scope alerts.Scope) (alerts.ResolvedScope, error) {
	var (
		g   Geometry
		err error
	)

	switch scope.Kind {
	case alerts.ScopeGeometry:
		if len(scope.Geometry) == 0 {
			return alerts.ResolvedScope{}, fmt.Errorf("%w: empty geometry", alerts.ErrUnsupportedScope)
		}
		return alerts.ResolvedScope{Scope: scope}, nil
	case alerts.ScopeGeostore:
		g, err = c.ByID(ctx, scope.GeostoreID)
	case alerts.ScopeAdmin:
		g, err = c.Admin(ctx, scope.Admin)
	case alerts.ScopeLandUse:
		g, err = c.LandUse(ctx, scope.UseType, scope.UseID)
	case alerts.ScopeProtectedArea:
		g, err = c.ProtectedArea(ctx, scope.WDPAID)
	default:
		return alerts.ResolvedScope{}, fmt.Errorf("%w: scope kind %s", alerts.ErrUnsupportedScope, scope.Kind)
	}
	if err != nil {
		return alerts.ResolvedScope{}, err
	}

	resolved := alerts.ResolvedScope{Scope: scope, AreaHa: g.AreaHa, GeostoreID: g.ID}
	if resolved.EmbedsAdmin() {
		resolved.GeostoreID = ""
	}
	return resolved, nil
}

// ByID fetches a stored geometry.
func (c *Client) ByID(ctx context.Context, id string) (Geometry, error) {
	if id == "" {
		return Geometry{}, fmt.Errorf("%w: geostore id is required", alerts.ErrUnsupportedScope)
	}
	return c.get(ctx, "/v1/geostore/"+url.PathEscape(id))
}

// Admin fetches the geometry of a country, state or district.
func (c *Client) Admin(ctx context.Context, a alerts.Admin) (Geometry, error) {
	if len(a.ISO) != 3 {
		return Geometry{}, fmt.Errorf("%w: invalid ISO code %q", alerts.ErrUnsupportedScope, a.ISO)
	}
	if a.District != 0 && a.State == 0 {
		return Geometry{}, fmt.Errorf("%w: district requires a state", alerts.ErrUnsupportedScope)
	}

	path := "/v2/geostore/admin/" + url.PathEscape(strings.ToUpper(a.ISO))
	if a.State != 0 {
		path += "/" + strconv.Itoa(a.State)
	}
	if a.District != 0 {
		path += "/" + strconv.Itoa(a.District)
	}
	return c.get(ctx, path)
}

// LandUse fetches the geometry of a land-use concession.
func (c *Client) LandUse(ctx context.Context, useType, useID string) (Geometry, error) {
	if !IsUseType(useType) {
		return Geometry{}, fmt.Errorf("%w: use type %q", alerts.ErrUnsupportedScope, useType)
	}
	return c.get(ctx, "/v2/geostore/use/"+useType+"/"+url.PathEscape(useID))
}

// ProtectedArea fetches the geometry of a WDPA protected area.
func (c *Client) ProtectedArea(ctx context.Context, wdpaID string) (Geometry, error) {
	if wdpaID == "" {
		return Geometry{}, fmt.Errorf("%w: wdpa id is required", alerts.ErrUnsupportedScope)
	}
	return c.get(ctx, "/v2/geostore/wdpa/"+url.PathEscape(wdpaID))
}

func (c *Client) get(ctx context.Context, path string) (Geometry, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "fetching geostore", slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: geostore request failed: %v", alerts.ErrUpstreamQuery, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: failed to read geostore response: %v", alerts.ErrUpstreamQuery, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Geometry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		c.logger.ErrorContext(ctx, "geostore returned non-200 status",
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode),
		)
		return Geometry{}, fmt.Errorf("%w: geostore returned status %d", alerts.ErrUpstreamQuery, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return Geometry{}, fmt.Errorf("%w: geostore returned invalid JSON", alerts.ErrUpstreamQuery)
	}
	id := gjson.GetBytes(body, "data.id")
	if !id.Exists() {
		return Geometry{}, fmt.Errorf("%w: geostore response has no id", alerts.ErrUpstreamQuery)
	}

	return Geometry{
		ID:     id.String(),
		AreaHa: gjson.GetBytes(body, "data.attributes.areaHa").Float(),
	}, nil
}
