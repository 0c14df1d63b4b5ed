package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domainrecall "recallrelay/internal/domain/recall"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	rateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_rejects_total",
			Help: "Total number of trigger requests rejected by the rate limiter",
		},
	)

	panicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_panic_recoveries_total",
			Help: "Total number of panics recovered in HTTP handlers",
		},
	)

	ingestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_ingest_records_total",
			Help: "Records processed by ingestion runs, by outcome",
		},
		[]string{"authority", "outcome"},
	)
)

// observeTally adds a run's counts, partial ones included, to the ingest counter.
func observeTally(authority string, tally domainrecall.Tally) {
	ingestRecordsTotal.WithLabelValues(authority, "inserted").Add(float64(tally.Inserted))
	ingestRecordsTotal.WithLabelValues(authority, "error").Add(float64(tally.Errors))
	ingestRecordsTotal.WithLabelValues(authority, "skipped").Add(float64(tally.Skipped))
}
