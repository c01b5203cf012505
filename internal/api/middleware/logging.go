package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// RequestIDHeader is read from and echoed back on every request.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware extracts or generates a request ID and adds it to the context
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set(RequestIDHeader, requestID)
			}

			w.Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logging middleware adds request logging, performance timing and panic
// recovery. It expects RequestIDMiddleware to run first. http.ErrAbortHandler
// is re-raised.
func Logging(logger hclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := GetRequestID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			// Wrap the writer to capture the status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger.Info("REQUEST",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						// Lets net/http abort the connection silently.
						panic(rec)
					}
					logger.Error("PANIC", "request_id", requestID, "panic", rec, "stack", string(debug.Stack()))

					render.Status(r, http.StatusInternalServerError)
					render.JSON(ww, r, map[string]string{
						"error":      "Internal server error",
						"request_id": requestID,
					})
				}

				logger.Info("RESPONSE",
					"request_id", requestID,
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
					"status_text", http.StatusText(ww.Status()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
