// Package metrics provides Prometheus metrics for the customer match service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared with callers.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline Metrics - what each upload request did
	uploadsTotal         *prometheus.CounterVec
	rawRecordsRead       prometheus.Counter
	identifiersHashed    *prometheus.CounterVec
	rowsDropped          prometheus.Counter
	addressesSkipped     prometheus.Counter
	operationsSubmitted  prometheus.Counter
	partialFailures      prometheus.Counter
	jobStatus            *prometheus.CounterVec
	storageFetchFailures prometheus.Counter

	// Ads Platform Metrics - remote RPC health
	adsRequestDuration *prometheus.HistogramVec
	adsRequestErrors   *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "customermatch",
		subsystem:        "upload",
		histogramBuckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	if !m.enabled {
		// Unregistered collectors still accept observations.
		auto = promauto.With(nil)
	}
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(name, help string, lbls ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lbls)
	}
	histogramVec := func(name, help string, lbls ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: m.histogramBuckets,
		}, lbls)
	}

	m.uploadsTotal = counterVec("requests_total", "Upload requests by outcome", "outcome")
	m.rawRecordsRead = counter("raw_records_total", "CSV rows read from object storage")
	m.identifiersHashed = counterVec("identifiers_total", "Hashed identifiers built, by kind", "kind")
	m.rowsDropped = counter("rows_dropped_total", "Rows that produced no identifier")
	m.addressesSkipped = counter("addresses_skipped_total", "Rows whose mailing address lacked a required column")
	m.operationsSubmitted = counter("operations_total", "Operations sent to upload jobs")
	m.partialFailures = counter("partial_failures_total", "Operations rejected through partial failure")
	m.jobStatus = counterVec("job_status_total", "Upload job status observed after a run", "status")
	m.storageFetchFailures = counter("storage_fetch_failures_total", "Input files that could not be fetched or parsed")

	m.adsRequestDuration = histogramVec("ads_request_duration_milliseconds",
		"Ads platform RPC latency in milliseconds", "method", "outcome")
	m.adsRequestErrors = counterVec("ads_request_errors_total",
		"Ads platform RPC failures by method and status code name", "method", "status")

	m.httpRequests = counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: m.name("memory_bytes"),
		Help: "Heap bytes allocated", ConstLabels: labels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: m.name("goroutines"),
		Help: "Number of goroutines", ConstLabels: labels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", Name: m.name("gc_pause_milliseconds"),
		Help: "Average GC pause in milliseconds", ConstLabels: labels,
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
}

// Pipeline Metrics Functions.

// RecordUpload counts one finished upload request.
func RecordUpload(outcome string) {
	globalManager.uploadsTotal.WithLabelValues(outcome).Inc()
}

// RecordRawRecords adds n rows read from an input file.
func RecordRawRecords(n int) {
	globalManager.rawRecordsRead.Add(float64(n))
}

// RecordIdentifier counts one hashed identifier of the given kind.
func RecordIdentifier(kind string) {
	globalManager.identifiersHashed.WithLabelValues(kind).Inc()
}

// RecordRowDropped counts a row that yielded no identifier.
func RecordRowDropped() {
	globalManager.rowsDropped.Inc()
}

// RecordAddressSkipped counts an incomplete mailing address.
func RecordAddressSkipped() {
	globalManager.addressesSkipped.Inc()
}

// RecordOperations adds n operations submitted to a job.
func RecordOperations(n int) {
	globalManager.operationsSubmitted.Add(float64(n))
}

// RecordPartialFailures adds n operations rejected by the platform.
func RecordPartialFailures(n int) {
	globalManager.partialFailures.Add(float64(n))
}

// RecordJobStatus counts an observed job status.
func RecordJobStatus(status string) {
	globalManager.jobStatus.WithLabelValues(status).Inc()
}

// RecordStorageFetchFailure counts an input file that could not be read.
func RecordStorageFetchFailure() {
	globalManager.storageFetchFailures.Inc()
}

// Ads Platform Metrics Functions.

// RecordAdsRequest records latency of one ads platform RPC.
func RecordAdsRequest(method, outcome string, latencyMs float64) {
	globalManager.adsRequestDuration.WithLabelValues(method, outcome).Observe(latencyMs)
}

// RecordAdsError counts one failed ads platform RPC.
func RecordAdsError(method, status string) {
	globalManager.adsRequestErrors.WithLabelValues(method, status).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
