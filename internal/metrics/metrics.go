package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ruokalista/internal/services"
)

var (
	// Fetch metrics
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_fetch_total",
			Help: "Total number of menu fetches by result",
		},
		[]string{"result"}, // ok, fetch, timeout, ...
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ruokalista_fetch_duration_seconds",
			Help:    "Duration of menu fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FetchDays = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ruokalista_fetch_days",
			Help: "Number of days collected by the last successful fetch",
		},
	)

	// Data cache metrics
	DataCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_data_cache_lookups_total",
			Help: "Data cache lookups by outcome",
		},
		[]string{"outcome"}, // memory, store, fetched, stale, unavailable
	)

	StaleSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ruokalista_stale_sweeps_total",
			Help: "Number of background stale-entry sweeps started",
		},
	)

	// Render metrics
	RenderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_render_total",
			Help: "Render attempts by result",
		},
		[]string{"result"}, // ok, cached, busy, render, timeout
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ruokalista_render_duration_seconds",
			Help:    "Duration of rendering engine invocations in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	RenderInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ruokalista_render_in_progress",
			Help: "1 while the render guard is held",
		},
	)

	ArtifactsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ruokalista_artifacts_pruned_total",
			Help: "Number of stale artifact and intermediate files removed",
		},
	)

	// Scheduler metrics
	ScheduledRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_scheduled_runs_total",
			Help: "Scheduled daily cycles by result",
		},
		[]string{"result"},
	)

	ScheduledLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ruokalista_scheduled_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled cycle",
		},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ruokalista_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ruokalista_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruokalista_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordFetch records one fetch attempt.
func RecordFetch(duration time.Duration, days int, err error) {
	FetchDuration.Observe(duration.Seconds())
	FetchTotal.WithLabelValues(services.Kind(err)).Inc()
	if err == nil {
		FetchDays.Set(float64(days))
	}
}

// RecordRender records one render outcome. Duration is ignored for outcomes
// that did not invoke the engine.
func RecordRender(result string, duration time.Duration) {
	RenderTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		RenderDuration.Observe(duration.Seconds())
	}
}

// RecordScheduledRun records the outcome of one scheduled daily cycle.
func RecordScheduledRun(err error) {
	ScheduledRuns.WithLabelValues(services.Kind(err)).Inc()
	if err == nil {
		ScheduledLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackRender flips the in-progress gauge.
func TrackRender(active bool) {
	if active {
		RenderInProgress.Set(1)
		return
	}
	RenderInProgress.Set(0)
}
