package http

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"property-finance-system/internal/core/ports"
)

// RateLimiterMiddleware throttles request rates per client IP.
type RateLimiterMiddleware struct {
	repo   ports.RateLimiterRepository
	logger *slog.Logger
}

func NewRateLimiterMiddleware(repo ports.RateLimiterRepository, logger *slog.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		repo:   repo,
		logger: logger,
	}
}

// Handler is the middleware entry point.
func (m *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// middleware.RealIP rewrites RemoteAddr to a bare IP with no
			// port; throttle on it rather than failing open for exactly
			// the proxied traffic that needs limiting.
			ip = strings.TrimSpace(r.RemoteAddr)
		}
		if ip == "" {
			m.logger.Error("failed to determine client IP", "remote_addr", r.RemoteAddr)
			// Cannot attribute the request to a client; let it through
			// rather than blocking legitimate users.
			next.ServeHTTP(w, r)
			return
		}

		// TODO: move the limits into configuration
		limit := 100
		window := 1 * time.Minute

		allowed, err := m.repo.IsAllowed(r.Context(), ip, limit, window)
		if err != nil {
			m.logger.Error("rate limit check failed", "error", err)
			// Fail-open: if the limiter backend is down, dropping all
			// traffic would be worse than serving it unthrottled.
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			writeJSONError(w, "Too Many Requests", http.StatusTooManyRequests, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}
