// Package api provides HTTP handlers and routing for the alert analysis service.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/geostore"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	RequestID   string `json:"request_id,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "BadRequest"
	ErrCodeNotFound         = "NotFound"
	ErrCodeInvalidParameter = "InvalidParameterValue"
	ErrCodeInvalidPeriod    = "InvalidPeriod"
	ErrCodeOutOfRange       = "OutOfRange"
	ErrCodeUnsupportedScope = "UnsupportedScope"
	ErrCodeServerError      = "ServerError"
	ErrCodeUpstreamError    = "UpstreamServiceError"
)

// WriteJSON writes a JSON response with the given status code and value.
// If encoding fails, it logs the error and returns an internal server error.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorWithRequestID(w, status, code, message, "")
}

// WriteErrorWithRequestID writes an error response that echoes the request ID.
func WriteErrorWithRequestID(w http.ResponseWriter, status int, code, message, requestID string) {
	errResp := ErrorResponse{
		Code:        code,
		Description: message,
		RequestID:   requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		slog.Error("failed to encode error response",
			slog.String("error", err.Error()),
		)
	}
}

// WriteBadRequest writes a 400 Bad Request error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteNotFound writes a 404 Not Found error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteInvalidParameter writes a 400 Bad Request error for invalid parameters.
func WriteInvalidParameter(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// WriteInternalErrorWithRequestID writes a 500 Internal Server Error response.
func WriteInternalErrorWithRequestID(w http.ResponseWriter, message, requestID string) {
	WriteErrorWithRequestID(w, http.StatusInternalServerError, ErrCodeServerError, message, requestID)
}

// statusFor maps an analysis error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, alerts.ErrInvalidPeriod):
		return http.StatusBadRequest, ErrCodeInvalidPeriod
	case errors.Is(err, alerts.ErrOutOfRange):
		return http.StatusBadRequest, ErrCodeOutOfRange
	case errors.Is(err, alerts.ErrUnsupportedScope):
		return http.StatusBadRequest, ErrCodeUnsupportedScope
	case errors.Is(err, geostore.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, alerts.ErrUpstreamQuery):
		return http.StatusBadGateway, ErrCodeUpstreamError
	default:
		return http.StatusInternalServerError, ErrCodeServerError
	}
}

// writeAnalysisError writes the response for an error returned by the analysis service.
func writeAnalysisError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	reqID := GetRequestID(r.Context())

	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "analysis failed",
			slog.String("request_id", reqID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if status == http.StatusBadGateway {
			message = "upstream alert service error"
		} else {
			message = "internal server error"
		}
	}

	WriteErrorWithRequestID(w, status, code, message, reqID)
}
