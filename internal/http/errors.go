package http

import (
	"net/http"

	"github.com/go-chi/render"

	"cpitracker/internal/log"
)

// Error codes returned by the JSON API.
const (
	CodeCountryNotFound    = "COUNTRY_NOT_FOUND"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// APIError is the JSON error body of the API.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, message string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message, Details: details}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, e *APIError) {
	if err := render.Render(w, r, e); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed rendering API error", log.FieldError, err.Error())
	}
}
