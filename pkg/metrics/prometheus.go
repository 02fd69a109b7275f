// Package metrics provides Prometheus metrics for the spotrank service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// DefaultLatencyBuckets are the millisecond buckets shared by the latency
// histograms, from sub-millisecond rankings up to multi-second dataset loads.
var DefaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager manages all Prometheus metrics for the spotrank service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ranking Metrics
	rankingRequests   *prometheus.CounterVec
	rankingLatency    *prometheus.HistogramVec
	rankingResultSize prometheus.Gauge
	rankingErrors     *prometheus.CounterVec

	// Dataset Metrics
	datasetSize           prometheus.Gauge
	datasetLoads          prometheus.Counter
	datasetLoadErrors     prometheus.Counter
	datasetLoadLatency    prometheus.Histogram
	datasetLastLoadUnix   prometheus.Gauge
	datasetLastDurationMs prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spotrank",
		subsystem:        "ranking",
		latencyBuckets:   DefaultLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Ranking Metrics
	m.rankingRequests = auto.NewCounterVec(
		m.counterOpts("requests_total", "Total number of ranking computations by operation"),
		[]string{"operation"},
	)
	m.rankingLatency = auto.NewHistogramVec(
		m.histogramOpts("latency_milliseconds", "Ranking computation latency in milliseconds", m.latencyBuckets),
		[]string{"operation"},
	)
	m.rankingResultSize = auto.NewGauge(
		m.gaugeOpts("last_result_size", "Number of entries in the most recent ranking result"),
	)
	m.rankingErrors = auto.NewCounterVec(
		m.counterOpts("errors_total", "Total number of failed ranking computations by error kind"),
		[]string{"kind"},
	)

	// Dataset Metrics
	m.datasetSize = auto.NewGauge(
		m.gaugeOpts("dataset_locations", "Number of locations in the published dataset snapshot"),
	)
	m.datasetLoads = auto.NewCounter(
		m.counterOpts("dataset_loads_total", "Total number of dataset snapshots published"),
	)
	m.datasetLoadErrors = auto.NewCounter(
		m.counterOpts("dataset_load_errors_total", "Total number of failed dataset loads"),
	)
	m.datasetLoadLatency = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Dataset load and parse duration in milliseconds", m.latencyBuckets),
	)
	m.datasetLastLoadUnix = auto.NewGauge(
		m.gaugeOpts("dataset_last_load_unix", "Unix timestamp of the last dataset snapshot publish"),
	)
	m.datasetLastDurationMs = auto.NewGauge(
		m.gaugeOpts("dataset_last_load_duration_milliseconds", "Last dataset load duration in milliseconds"),
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.latencyBuckets),
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordRankingRequest counts one ranking computation for operation
// ("rank" or "explain").
func (m *Manager) RecordRankingRequest(operation string) {
	if !m.enabled {
		return
	}
	m.rankingRequests.WithLabelValues(operation).Inc()
}

// RecordRankingLatency records ranking latency in milliseconds.
func (m *Manager) RecordRankingLatency(operation string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.rankingLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateRankingResultSize sets the size of the latest ranking result.
func (m *Manager) UpdateRankingResultSize(n int) {
	if !m.enabled {
		return
	}
	m.rankingResultSize.Set(float64(n))
}

// RecordRankingError counts a failed ranking computation.
func (m *Manager) RecordRankingError(kind string) {
	if !m.enabled {
		return
	}
	m.rankingErrors.WithLabelValues(kind).Inc()
}

// RecordDatasetLoad records a successful dataset load.
func (m *Manager) RecordDatasetLoad(durationMs float64) {
	if !m.enabled {
		return
	}
	m.datasetLoads.Inc()
	m.datasetLoadLatency.Observe(durationMs)
	m.datasetLastDurationMs.Set(durationMs)
}

// RecordDatasetLoadError counts a failed dataset load.
func (m *Manager) RecordDatasetLoadError() {
	if !m.enabled {
		return
	}
	m.datasetLoadErrors.Inc()
}

// UpdateDatasetSize sets the number of published locations.
func (m *Manager) UpdateDatasetSize(n int) {
	if !m.enabled {
		return
	}
	m.datasetSize.Set(float64(n))
}

// UpdateDatasetLastLoadUnix sets the publish time of the current snapshot.
func (m *Manager) UpdateDatasetLastLoadUnix(ts float64) {
	if !m.enabled {
		return
	}
	m.datasetLastLoadUnix.Set(ts)
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if !m.enabled {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level helpers delegate to the global manager.

// RecordRankingRequest counts one ranking computation.
func RecordRankingRequest(operation string) { globalManager.RecordRankingRequest(operation) }

// RecordRankingLatency records ranking latency in milliseconds.
func RecordRankingLatency(operation string, latencyMs float64) {
	globalManager.RecordRankingLatency(operation, latencyMs)
}

// UpdateRankingResultSize sets the size of the latest ranking result.
func UpdateRankingResultSize(n int) { globalManager.UpdateRankingResultSize(n) }

// RecordRankingError counts a failed ranking computation.
func RecordRankingError(kind string) { globalManager.RecordRankingError(kind) }

// RecordDatasetLoad records a successful dataset load.
func RecordDatasetLoad(durationMs float64) { globalManager.RecordDatasetLoad(durationMs) }

// RecordDatasetLoadError counts a failed dataset load.
func RecordDatasetLoadError() { globalManager.RecordDatasetLoadError() }

// UpdateDatasetSize sets the number of published locations.
func UpdateDatasetSize(n int) { globalManager.UpdateDatasetSize(n) }

// UpdateDatasetLastLoadUnix sets the publish time of the current snapshot.
func UpdateDatasetLastLoadUnix(ts float64) { globalManager.UpdateDatasetLastLoadUnix(ts) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.RecordErrorLatency(component, errorType, latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
