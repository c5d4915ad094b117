package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/analysis"
	"github.com/robert-malhotra/glad-analysis/internal/response"
	"github.com/robert-malhotra/glad-analysis/pkg/geojson"
)

// maxBodyBytes caps posted GeoJSON bodies.
const maxBodyBytes = 4 << 20

// Analyzer is the analysis core as seen by the HTTP layer.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*response.Document, error)
	DateRange(ctx context.Context, kind alerts.Kind) (*response.Document, error)
	Latest(ctx context.Context, kind alerts.Kind) (*response.Document, error)
}

// Handlers contains all HTTP handlers for the alert API.
type Handlers struct {
	service Analyzer
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(service Analyzer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Geostore analyses the area of a stored geometry.
// GET /{dataset}-alerts?geostore=...
func (h *Handlers) Geostore(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get(paramGeostore)
		if err := requireGeostore(id); err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		h.analyze(w, r, kind, alerts.GeostoreScope(id), "")
	}
}

// Geometry analyses a posted GeoJSON area. The body is either the GeoJSON
// itself or an object carrying it under "geojson", optionally next to a
// "period" used when the query string has none.
// POST /{dataset}-alerts
func (h *Handlers) Geometry(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
				return
			}
			WriteBadRequest(w, "failed to read request body")
			return
		}

		var bodyPeriod string
		if wrapped := gjson.GetBytes(body, "geojson"); wrapped.IsObject() {
			if p := gjson.GetBytes(body, paramPeriod); p.Exists() {
				if p.Type != gjson.String {
					WriteInvalidParameter(w, invalid(paramPeriod, "period must be a string").Error())
					return
				}
				bodyPeriod = p.String()
			}
			body = []byte(wrapped.Raw)
		}

		area, err := geojson.ParseArea(body)
		if err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		if bbox, err := area.BBox(); err == nil {
			h.logger.DebugContext(r.Context(), "geometry scope",
				slog.String("type", area.Type),
				slog.Any("bbox", bbox),
			)
		}
		raw, err := json.Marshal(area)
		if err != nil {
			WriteInternalErrorWithRequestID(w, "failed to encode geometry", GetRequestID(r.Context()))
			return
		}

		h.analyze(w, r, kind, alerts.GeometryScope(raw), bodyPeriod)
	}
}

// Admin analyses a country, state or district.
// GET /{dataset}-alerts/admin/{iso}[/{adm1}[/{adm2}]]
func (h *Handlers) Admin(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		iso := chi.URLParam(r, "iso")
		if err := checkISO(iso); err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		state, err := parseAdminID("adm1", chi.URLParam(r, "adm1"))
		if err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		district, err := parseAdminID("adm2", chi.URLParam(r, "adm2"))
		if err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		h.analyze(w, r, kind, alerts.AdminScope(iso, state, district), "")
	}
}

// LandUse analyses a land-use concession.
// GET /{dataset}-alerts/use/{useType}/{useId}
func (h *Handlers) LandUse(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		useType := chi.URLParam(r, "useType")
		if err := checkUseType(useType); err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		h.analyze(w, r, kind, alerts.LandUseScope(useType, chi.URLParam(r, "useId")), "")
	}
}

// ProtectedArea analyses a WDPA protected area.
// GET /{dataset}-alerts/wdpa/{wdpaId}
func (h *Handlers) ProtectedArea(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.analyze(w, r, kind, alerts.ProtectedAreaScope(chi.URLParam(r, "wdpaId")), "")
	}
}

// DateRange returns the first and last indexed dates.
// GET /{dataset}-alerts/date-range
func (h *Handlers) DateRange(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.service.DateRange(r.Context(), kind)
		if err != nil {
			writeAnalysisError(w, r, h.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	}
}

// Latest returns the last indexed date.
// GET /{dataset}-alerts/latest
func (h *Handlers) Latest(kind alerts.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.service.Latest(r.Context(), kind)
		if err != nil {
			writeAnalysisError(w, r, h.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	}
}

// analyze runs one analysis. fallbackPeriod applies when the query string
// carries no period.
func (h *Handlers) analyze(w http.ResponseWriter, r *http.Request, kind alerts.Kind, scope alerts.Scope, fallbackPeriod string) {
	common, confirmedOnly, err := parseCommon(r, kind, fallbackPeriod)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	common.Scope = scope

	req, err := analysis.NewRequest(kind, common, confirmedOnly)
	if err != nil {
		writeAnalysisError(w, r, h.logger, err)
		return
	}

	doc, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		writeAnalysisError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

// parseCommon reads the query parameters shared by every analysis route.
// gladConfirmOnly is only read for GLAD.
func parseCommon(r *http.Request, kind alerts.Kind, fallbackPeriod string) (analysis.Common, bool, error) {
	q := r.URL.Query()

	period := q.Get(paramPeriod)
	if period == "" {
		period = fallbackPeriod
	}
	if err := checkPeriod(period); err != nil {
		return analysis.Common{}, false, err
	}

	aggregateValues, err := parseBool(paramAggregateValues, q.Get(paramAggregateValues))
	if err != nil {
		return analysis.Common{}, false, err
	}

	aggregateBy := q.Get(paramAggregateBy)
	if err := checkAggregateBy(aggregateBy); err != nil {
		return analysis.Common{}, false, err
	}

	var confirmedOnly bool
	if kind == alerts.KindGlad {
		confirmedOnly, err = parseBool(paramConfirmedOnly, q.Get(paramConfirmedOnly))
		if err != nil {
			return analysis.Common{}, false, err
		}
	}

	return analysis.Common{
		Period:      period,
		Aggregate:   aggregateValues,
		AggregateBy: aggregateBy,
	}, confirmedOnly, nil
}
