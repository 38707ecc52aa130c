package observability

import (
	"context"
	"log/slog"
	"net/http"
	"os"
)

type contextKey string

const loggerKey = contextKey("logger")

// SetupLogger builds the process-wide logger. Development runs get readable
// text at debug level, everything else gets JSON for the log pipeline.
func SetupLogger(env string) *slog.Logger {
	switch env {
	case "development", "dev":
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// NewLoggerMiddleware attaches the logger to each request's context.
func NewLoggerMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), loggerKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
