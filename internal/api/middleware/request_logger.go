package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/api/response"
)

// RequestLogger stores a request-scoped logger in the context and logs each
// request once it completes.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := middleware.GetReqID(r.Context())
			reqLogger := logger.With().Str("request_id", reqID).Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			// Auth may have added caller fields to the context logger
			l := zerolog.Ctx(r.Context())
			var ev *zerolog.Event
			switch {
			case ww.status >= 500:
				ev = l.Error()
			case ww.status >= 400:
				ev = l.Warn()
			default:
				ev = l.Info()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_ip", r.RemoteAddr).
				Int("status", ww.status).
				Int("bytes", ww.bytes).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// DetailedErrors exposes internal error messages in responses when enabled.
func DetailedErrors(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(response.WithDetailedErrors(r.Context())))
		})
	}
}
