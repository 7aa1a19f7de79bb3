package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FollowOperations records follow/unfollow attempts by operation and result.
	FollowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readzone_follow_operations_total",
			Help: "Total number of follow graph mutations",
		},
		[]string{"operation", "result"},
	)

	// NotificationsCreated counts fan-out notifications by type and outcome
	// (created|skipped|failed).
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readzone_notifications_total",
			Help: "Total number of notification fan-out attempts",
		},
		[]string{"type", "outcome"},
	)

	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readzone_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readzone_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
