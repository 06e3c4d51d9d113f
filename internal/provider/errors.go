package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrProviderNotFound    = errors.New("service provider not found")
	ErrProviderInactive    = errors.New("service provider is inactive")
	ErrMissingCredentials  = errors.New("service provider has no API credentials")
	ErrUnsupportedProvider = errors.New("unsupported provider type")
	ErrNotSupported        = errors.New("operation not supported by provider")
)

// UnknownActionError is returned for lifecycle actions outside the
// supported set.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// APIError is an upstream failure tagged with the provider's HTTP status
// and, where available, its error reason and offending field.
type APIError struct {
	Provider   string
	Operation  string
	StatusCode int
	Reason     string
	Field      string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Provider, e.Operation, e.StatusCode)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	return msg
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
