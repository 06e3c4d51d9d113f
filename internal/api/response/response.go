package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/core"
	"github.com/edvin/containerstacks/internal/provider"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// ListResponse wraps a collection.
type ListResponse struct {
	Items any `json:"items"`
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteList writes a 200 with items, rendering nil as an empty array.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, ListResponse{Items: items})
}

// WriteValidationError writes a 400 with per-field details.
func WriteValidationError(w http.ResponseWriter, message string, fields []FieldError) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Fields: fields})
}

type contextKey string

const detailedErrorsKey contextKey = "detailed_errors"

// WithDetailedErrors makes WriteServiceError expose internal error messages.
func WithDetailedErrors(ctx context.Context) context.Context {
	return context.WithValue(ctx, detailedErrorsKey, true)
}

func detailedErrors(ctx context.Context) bool {
	v, _ := ctx.Value(detailedErrorsKey).(bool)
	return v
}

// WriteServiceError maps a service-layer error to an HTTP status and writes
// it. Unmapped errors are logged and reported as 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		if !detailedErrors(r.Context()) {
			message = "internal server error"
		}
	}
	WriteError(w, status, message)
}

func classify(err error) (int, string) {
	var (
		apiErr    *provider.APIError
		actionErr *provider.UnknownActionError
		keyErr    *core.InvalidPublicKeyError
		rejectErr *core.CredentialsRejectedError
	)

	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, provider.ErrProviderNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrInvalidPlan), errors.Is(err, core.ErrMissingRegion),
		errors.Is(err, provider.ErrUnsupportedProvider),
		errors.As(err, &actionErr), errors.As(err, &keyErr):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, provider.ErrProviderInactive), errors.Is(err, provider.ErrMissingCredentials),
		errors.As(err, &rejectErr):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, provider.ErrNotSupported):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, provider.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "provider temporarily unavailable"
	case errors.As(err, &apiErr):
		return upstreamStatus(apiErr), upstreamMessage(apiErr)
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// upstreamStatus passes provider 4xx through, except credential failures
// which are ours to fix, not the caller's.
func upstreamStatus(e *provider.APIError) int {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return http.StatusBadGateway
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return e.StatusCode
	default:
		return http.StatusBadGateway
	}
}

func upstreamMessage(e *provider.APIError) string {
	msg := e.Provider + " " + e.Operation + " failed"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	return msg
}
