package middleware

import (
	"net/http"
	"time"

	"autosave/pkg/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger writes one debug line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Sugar.Debugw("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"client", ClientIP(r),
			"duration", time.Since(start),
		)
	})
}
