package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Forwarding metrics
	ForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridpulse_relay_forwards_total",
			Help: "Total number of forward attempts by outcome class",
		},
		[]string{"outcome"},
	)

	ForwardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridpulse_relay_forward_duration_seconds",
			Help:    "Duration of downstream forward calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RelayedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridpulse_relay_relayed_bytes_total",
			Help: "Total bytes of downstream response bodies relayed to callers",
		},
	)

	// Request rejection metrics
	RejectedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridpulse_relay_rejected_requests_total",
			Help: "Total number of requests rejected before any downstream call",
		},
		[]string{"reason"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridpulse_relay_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"client"},
	)
)
