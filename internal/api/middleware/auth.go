package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/hashicorp/go-hclog"
)

// contextKey is a custom type for keys local to this middleware package.
type contextKey string

// Context keys local to this middleware package
const (
	BearerTokenKey contextKey = "bearer_token"
	RequestIDKey   contextKey = "request_id"
)

const bearerPrefix = "Bearer "

// ErrMissingToken is returned when the request carries no usable bearer token.
var ErrMissingToken = errors.New("missing authorization token")

// UnauthorizedMessage is the body sent when ErrMissingToken is hit.
const UnauthorizedMessage = "Missing authorization token"

// BearerToken extracts the token from the Authorization header. The scheme
// match is case-sensitive and the remainder is returned untouched, so
// "Bearer " yields an empty token.
func BearerToken(h http.Header) (string, error) {
	authHeader := h.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrMissingToken
	}
	return authHeader[len(bearerPrefix):], nil
}

// RequireBearerToken rejects requests without a bearer token and stores the
// token in the request context for downstream handlers.
func RequireBearerToken(logger hclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header)
			if err != nil {
				logger.Debug("rejecting request", "request_id", GetRequestID(r.Context()), "path", r.URL.Path, "error", err)
				RenderUnauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), BearerTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RenderUnauthorized writes the 401 envelope.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": UnauthorizedMessage})
}

// TokenFromContext retrieves the bearer token stored by RequireBearerToken
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(BearerTokenKey).(string)
	return token, ok
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
