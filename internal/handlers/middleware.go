package handlers

import (
	"context"
	"net/http"
	"time"

	applog "expense-manager/internal/log"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request identifier back to the client.
const RequestIDHeader = "X-Request-ID"

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the identifier assigned by RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// log returns the handler logger tagged with the request's ID when it has one.
func (h *Handlers) log(r *http.Request) *applog.Logger {
	if id := RequestIDFromContext(r.Context()); id != "" {
		return h.logger.With(applog.FieldRequestID, id)
	}
	return h.logger
}

// RequestLogger tags each request with an ID and logs its completion.
func (h *Handlers) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		level := h.logger.Info
		if rw.statusCode >= http.StatusInternalServerError {
			level = h.logger.Warn
		}
		level("Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
