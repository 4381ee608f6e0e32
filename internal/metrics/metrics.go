package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks pricing runs by method and outcome ("ok" or an error kind).
	PricingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_requests_total",
			Help: "Total number of pricing requests handled (by pricing method and outcome).",
		},
		[]string{"method", "outcome"},
	)

	// Measures time spent computing a price, excluding product resolution.
	PricingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_duration_seconds",
			Help:    "Duration of pricing computations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13), // 1ms → ~4s
		},
		[]string{"method"},
	)

	// Tracks reference table fetches by table and result.
	TableFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_table_fetch_total",
			Help: "Total number of reference table fetches.",
		},
		[]string{"table", "result"}, // result = "ok" | "error"
	)

	TableFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reference_table_fetch_duration_seconds",
			Help:    "Time taken to fetch and decode a reference table.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	// Tracks audit log writes by backend and result.
	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Total number of audit record writes.",
		},
		[]string{"backend", "result"}, // result = "ok" | "duplicate" | "error"
	)

	AuditWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_write_duration_seconds",
			Help:    "Time taken to write an audit record.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages processed.",
		},
		[]string{"subject", "result"},
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Counts requests rejected by the per-caller limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_rate_limited_total",
			Help: "Requests rejected by the per-caller rate limiter.",
		},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)
)

// ObserveDuration records the time elapsed since start on the given histogram.
func ObserveDuration(v interface{}, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters are not meant for duration tracking
	}
}

func IncPricing(method, outcome string) {
	PricingRequestsTotal.WithLabelValues(method, outcome).Inc()
}

func IncTableFetch(table, result string) {
	TableFetchTotal.WithLabelValues(table, result).Inc()
}

func IncAuditWrite(backend, result string) {
	AuditWritesTotal.WithLabelValues(backend, result).Inc()
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
