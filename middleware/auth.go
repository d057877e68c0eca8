package middleware

import (
	"context"
	"net"
	"net/http"
)

type contextKey string

const (
	APIKeyHeader            = "x-api-key"
	APIKeyKey    contextKey = "apiKey"
)

// APIKeyMiddleware puts the candidate edit token from the x-api-key header
// into the request context. Checking it is left to the handlers, since
// reads on the same routes need no token.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), APIKeyKey, r.Header.Get(APIKeyHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// APIKey returns the token stored by APIKeyMiddleware, or "" if none.
func APIKey(r *http.Request) string {
	token, _ := r.Context().Value(APIKeyKey).(string)
	return token
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
