// Package metrics provides Prometheus metrics for the fish bingo service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Catalog index metrics
	indexBuilds        *prometheus.CounterVec
	indexBuildDuration prometheus.Histogram
	catalogEntries     *prometheus.GaugeVec
	catalogCollisions  *prometheus.GaugeVec
	catalogSkipped     prometheus.Gauge

	// Scoring and aggregation metrics
	claimsScored       *prometheus.CounterVec
	claimsSkipped      prometheus.Counter
	claimsStored       prometheus.Counter
	aggregationLatency prometheus.Histogram
	leaderboardSize    prometheus.Gauge

	// Storage metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fishbingo",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.indexBuilds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "index_builds_total",
		Help:        "Catalog index builds by result",
		ConstLabels: m.constLabels,
	}, []string{"result"})

	m.indexBuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "index_build_duration_milliseconds",
		Help:        "Catalog index build duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.catalogEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_entries",
		Help:        "Entries in the current catalog index",
		ConstLabels: m.constLabels,
	}, []string{"catalog"})

	m.catalogCollisions = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_alias_collisions",
		Help:        "Aliases rejected because an earlier entry already owned them",
		ConstLabels: m.constLabels,
	}, []string{"catalog"})

	m.catalogSkipped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_skipped_entries",
		Help:        "Species records skipped for lack of an identity",
		ConstLabels: m.constLabels,
	})

	m.claimsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "claims_scored_total",
		Help:        "Claims scored by resolution kind",
		ConstLabels: m.constLabels,
	}, []string{"resolution"})

	m.claimsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "claims_skipped_total",
		Help:        "Claims left out of aggregation for lack of a user id",
		ConstLabels: m.constLabels,
	})

	m.claimsStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "claims_stored_total",
		Help:        "Claims accepted into the store",
		ConstLabels: m.constLabels,
	})

	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "aggregation_latency_milliseconds",
		Help:        "Time to score and aggregate a claims snapshot in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "leaderboard_size",
		Help:        "Divers on the most recently computed leaderboard",
		ConstLabels: m.constLabels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_latency_milliseconds",
		Help:        "Store operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"op"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_errors_total",
		Help:        "Failed store operations",
		ConstLabels: m.constLabels,
	}, []string{"op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})
}

// Catalog index.

// RecordIndexBuild counts an index build and, on success, its duration.
func RecordIndexBuild(ok bool, durationMs float64) {
	if !ok {
		globalManager.indexBuilds.WithLabelValues("error").Inc()
		return
	}
	globalManager.indexBuilds.WithLabelValues("ok").Inc()
	globalManager.indexBuildDuration.Observe(durationMs)
}

// UpdateCatalogStats publishes the diagnostics of the current index.
func UpdateCatalogStats(species, bonuses, speciesCollisions, bonusCollisions, skipped int) {
	globalManager.catalogEntries.WithLabelValues("species").Set(float64(species))
	globalManager.catalogEntries.WithLabelValues("bonus").Set(float64(bonuses))
	globalManager.catalogCollisions.WithLabelValues("species").Set(float64(speciesCollisions))
	globalManager.catalogCollisions.WithLabelValues("bonus").Set(float64(bonusCollisions))
	globalManager.catalogSkipped.Set(float64(skipped))
}

// Scoring and aggregation.

// RecordClaimsScored adds n claims resolved as kind.
func RecordClaimsScored(kind string, n int) {
	if n > 0 {
		globalManager.claimsScored.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordClaimsSkipped adds n claims dropped from aggregation.
func RecordClaimsSkipped(n int) {
	if n > 0 {
		globalManager.claimsSkipped.Add(float64(n))
	}
}

// RecordClaimStored increments the stored claims counter.
func RecordClaimStored() {
	globalManager.claimsStored.Inc()
}

// RecordAggregationLatency records aggregation latency in milliseconds.
func RecordAggregationLatency(latencyMs float64) {
	globalManager.aggregationLatency.Observe(latencyMs)
}

// UpdateLeaderboardSize sets the number of ranked divers.
func UpdateLeaderboardSize(n int) {
	globalManager.leaderboardSize.Set(float64(n))
}

// Storage.

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
