package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookpipe_ingest_requests_total",
			Help: "Total number of ingestion requests by outcome",
		},
		[]string{"outcome"},
	)

	EventBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookpipe_ingest_event_bytes_total",
			Help: "Total bytes of event payload data received",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookpipe_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Fan-out metrics
	DeliveryLogsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookpipe_delivery_logs_created_total",
			Help: "Total number of delivery log records created",
		},
	)

	DeliveryLogErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookpipe_delivery_log_errors_total",
			Help: "Total number of failed delivery log creations",
		},
	)

	FanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hookpipe_fanout_duration_seconds",
			Help:    "Duration of fan-out dispatch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Outcome labels for IngestRequestsTotal.
const (
	OutcomeReceived       = "received"
	OutcomeNoDestinations = "no_destinations"
	OutcomeMissingHeaders = "missing_headers"
	OutcomeInvalidToken   = "invalid_token"
	OutcomeRateLimited    = "rate_limited"
	OutcomeError          = "error"
)
