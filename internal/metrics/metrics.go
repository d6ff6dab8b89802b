// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opds_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opds_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Catalog building
	CatalogBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opds_catalog_builds_total",
			Help: "Catalog builds by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	CatalogBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opds_catalog_build_duration_seconds",
			Help:    "Time spent building a catalog",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"},
	)

	CatalogReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opds_catalog_config_reloads_total",
			Help: "Catalog configuration reloads by outcome",
		},
		[]string{"outcome"},
	)

	// Upstream archive.org API
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opds_upstream_request_duration_seconds",
			Help:    "archive.org request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opds_upstream_errors_total",
			Help: "archive.org request failures",
		},
		[]string{"endpoint"},
	)

	RecordFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opds_record_fetch_failures_total",
			Help: "Metadata lookups that failed and were omitted from a result page",
		},
	)

	WorkersInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "opds_metadata_workers_in_use",
			Help: "Metadata fetch worker slots currently held",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "opds_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opds_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opds_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordCatalogBuild records one catalog build.
func RecordCatalogBuild(catalogType string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CatalogBuildsTotal.WithLabelValues(catalogType, outcome).Inc()
	CatalogBuildDuration.WithLabelValues(catalogType).Observe(d.Seconds())
}

// RecordUpstream records one archive.org call.
func RecordUpstream(endpoint string, d time.Duration, err error) {
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	if err != nil {
		UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
	}
}

func RecordReload(err error) {
	if err != nil {
		CatalogReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	CatalogReloadsTotal.WithLabelValues("success").Inc()
}
