package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
)

// Logging кладёт request-scoped логгер (request_id, trace_id) в контекст
// и пишет одну запись "http" на запрос. Ставится после RequestID.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := log.WithTrace(r.Context(), l)
			if rid := RequestIDFrom(r.Context()); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}
			r = r.WithContext(log.Into(r.Context(), reqLogger))

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.Status()),
				slog.Duration("dur", dur),
				slog.Int("bytes", sw.count),
			}

			level := slog.LevelInfo
			if sw.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			log.From(r.Context()).LogAttrs(r.Context(), level, "http", attrs...)
		})
	}
}
