package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/portfolio-gate/internal/telemetry"
)

const anonymousClient = "anonymous"

type Limiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	Prefix() string
}

// RateLimit admits requests while the client's sliding-window budget lasts.
// Over budget, onLimited writes the response. Limiter errors fail closed.
func RateLimit(l Limiter, onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				slog.Error("rate limiter unavailable", "namespace", l.Prefix(), "err", err)
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				telemetry.RateLimitedTotal.WithLabelValues(l.Prefix()).Inc()
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TooManyRequests is an onLimited responder answering 429 with msg.
func TooManyRequests(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusTooManyRequests, msg)
	}
}

// clientIP is the first X-Forwarded-For hop. Clients without one share the
// anonymous budget.
func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return anonymousClient
	}
	first, _, _ := strings.Cut(xff, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return anonymousClient
}
