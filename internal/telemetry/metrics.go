package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics use the chi route pattern, never the raw URL.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// Auth flow metrics.
var (
	// outcome: created, pending, link_sent, expired, ignored, admin, error
	AccessRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_access_requests_total",
			Help: "Access requests by outcome.",
		},
		[]string{"outcome"},
	)

	// outcome: issued, redeemed, invalid
	MagicLinksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_magic_links_total",
			Help: "Magic-link tokens by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	SessionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_created_total",
			Help: "Sessions created by role.",
		},
		[]string{"role"},
	)

	SessionsInvalidatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_invalidated_total",
			Help: "Sessions removed by bulk invalidation.",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by namespace.",
		},
		[]string{"namespace"},
	)
)
