package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// AccessLog returns a middleware that logs one Debug line per request.
// l may be nil (slog.Default()).
func AccessLog(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{w: w}
			next.ServeHTTP(sw, r)
			logger(l).LogAttrs(r.Context(), slog.LevelDebug, "httpx: request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Int64("bytes", sw.bytes),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("remote", r.RemoteAddr))
		})
	}
}
