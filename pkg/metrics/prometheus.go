// Package metrics provides Prometheus metrics for the firewatch risk service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// probabilityBuckets spans the ensemble output in tenths.
var probabilityBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the firewatch service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core assessment metrics
	assessments          *prometheus.CounterVec
	hotspots             prometheus.Counter
	assessmentLatency    prometheus.Histogram
	ensembleProbability  prometheus.Histogram
	validationErrors     prometheus.Counter
	inferenceLatency     *prometheus.HistogramVec
	inferenceErrors      *prometheus.CounterVec
	modelProbability     *prometheus.HistogramVec
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	cacheSize            prometheus.Gauge
	alertsPublished      prometheus.Counter
	alertErrors          prometheus.Counter
	alertQueueSize       prometheus.Gauge
	alertQueueDropped    prometheus.Counter
	alertWorkers         prometheus.Gauge
	alertDispatchLatency prometheus.Histogram
	historyAppends       prometheus.Counter
	historyErrors        prometheus.Counter
	trackedCells         prometheus.Gauge
	storeUpdateLatency   prometheus.Histogram
	storeQueryLatency    prometheus.Histogram
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
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
		namespace:        "firewatch",
		subsystem:        "risk",
		histogramBuckets: prometheus.DefBuckets,
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

	// Disabled managers still hand out working collectors, they are just
	// never exposed.
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
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
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.assessments = auto.NewCounterVec(
		m.counterOpts("assessments_total", "Total number of completed assessments by risk category"),
		[]string{"category"},
	)
	m.hotspots = auto.NewCounter(m.counterOpts("hotspots_total", "Total number of assessments flagged as hotspots"))
	m.assessmentLatency = auto.NewHistogram(m.histogramOpts(
		"assessment_latency_milliseconds", "End-to-end assessment latency in milliseconds", m.histogramBuckets))
	m.ensembleProbability = auto.NewHistogram(m.histogramOpts(
		"ensemble_probability", "Distribution of ensemble fire probabilities", probabilityBuckets))
	m.validationErrors = auto.NewCounter(m.counterOpts(
		"validation_errors_total", "Readings rejected for out-of-range values"))

	m.inferenceLatency = auto.NewHistogramVec(
		m.histogramOpts("inference_latency_milliseconds", "Per-model inference latency in milliseconds", m.histogramBuckets),
		[]string{"model"},
	)
	m.inferenceErrors = auto.NewCounterVec(
		m.counterOpts("inference_errors_total", "Per-model inference failures"),
		[]string{"model"},
	)
	m.modelProbability = auto.NewHistogramVec(
		m.histogramOpts("model_probability", "Distribution of per-model fire probabilities", probabilityBuckets),
		[]string{"model"},
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Assessments served from the memo cache"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Assessments that required inference"))
	m.cacheSize = auto.NewGauge(m.gaugeOpts("cache_entries", "Current number of memoised readings"))

	m.alertsPublished = auto.NewCounter(m.counterOpts("alerts_published_total", "Hotspot alerts published"))
	m.alertErrors = auto.NewCounter(m.counterOpts("alert_errors_total", "Hotspot alerts that failed to publish"))
	m.alertQueueSize = auto.NewGauge(m.gaugeOpts("alert_queue_size", "Hotspot alerts waiting to be published"))
	m.alertQueueDropped = auto.NewCounter(m.counterOpts(
		"alert_queue_dropped_total", "Hotspot alerts dropped because the queue was full or closed"))
	m.alertWorkers = auto.NewGauge(m.gaugeOpts("alert_workers", "Number of alert dispatch workers"))
	m.alertDispatchLatency = auto.NewHistogram(m.histogramOpts(
		"alert_dispatch_latency_milliseconds", "Time spent publishing one hotspot alert", m.histogramBuckets))
	m.historyAppends = auto.NewCounter(m.counterOpts("history_appends_total", "Assessments appended to history"))
	m.historyErrors = auto.NewCounter(m.counterOpts("history_errors_total", "History writes that failed"))

	m.trackedCells = auto.NewGauge(m.gaugeOpts("tracked_cells", "Number of cells in the hotspot ranking"))
	m.storeUpdateLatency = auto.NewHistogram(m.histogramOpts(
		"store_update_latency_milliseconds", "Hotspot store update latency in milliseconds", m.histogramBuckets))
	m.storeQueryLatency = auto.NewHistogram(m.histogramOpts(
		"store_query_latency_milliseconds", "Hotspot store query latency in milliseconds", m.histogramBuckets))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that failed", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Most recent GC pause in milliseconds", m.histogramBuckets))
}

// Assessment Metrics Functions.

// RecordAssessment counts a completed assessment and observes its probability.
func RecordAssessment(category string, probability float64, hotspot bool) {
	globalManager.assessments.WithLabelValues(category).Inc()
	globalManager.ensembleProbability.Observe(probability)
	if hotspot {
		globalManager.hotspots.Inc()
	}
}

// RecordAssessmentLatency records end-to-end assessment latency.
func RecordAssessmentLatency(latencyMs float64) {
	globalManager.assessmentLatency.Observe(latencyMs)
}

// RecordValidationError counts a rejected reading.
func RecordValidationError() {
	globalManager.validationErrors.Inc()
}

// RecordInference records one model call.
func RecordInference(model string, latencyMs float64, failed bool) {
	globalManager.inferenceLatency.WithLabelValues(model).Observe(latencyMs)
	if failed {
		globalManager.inferenceErrors.WithLabelValues(model).Inc()
	}
}

// RecordModelProbability observes a single model output.
func RecordModelProbability(model string, probability float64) {
	globalManager.modelProbability.WithLabelValues(model).Observe(probability)
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// UpdateCacheSize sets the number of cached readings.
func UpdateCacheSize(size int64) { globalManager.cacheSize.Set(float64(size)) }

// Alert and History Metrics Functions.

// RecordAlertPublished increments the published alert counter.
func RecordAlertPublished() { globalManager.alertsPublished.Inc() }

// RecordAlertError increments the alert error counter.
func RecordAlertError() { globalManager.alertErrors.Inc() }

// UpdateAlertQueueSize sets the number of queued alerts.
func UpdateAlertQueueSize(size int) { globalManager.alertQueueSize.Set(float64(size)) }

// RecordAlertDropped counts an alert that could not be queued.
func RecordAlertDropped() { globalManager.alertQueueDropped.Inc() }

// UpdateAlertWorkers sets the number of running alert workers.
func UpdateAlertWorkers(count int) { globalManager.alertWorkers.Set(float64(count)) }

// RecordAlertDispatchLatency observes the time spent publishing one alert.
func RecordAlertDispatchLatency(latencyMs float64) { globalManager.alertDispatchLatency.Observe(latencyMs) }

// RecordHistoryAppend increments the history append counter.
func RecordHistoryAppend() { globalManager.historyAppends.Inc() }

// RecordHistoryError increments the history error counter.
func RecordHistoryError() { globalManager.historyErrors.Inc() }

// Store Metrics Functions.

// UpdateTrackedCells sets the number of ranked cells.
func UpdateTrackedCells(count int) {
	globalManager.trackedCells.Set(float64(count))
}

// RecordStoreUpdateLatency records hotspot store update latency.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records hotspot store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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

// CollectSystemMetrics samples runtime statistics once.
func CollectSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / float64(time.Millisecond))
	}
}

// RunSystemCollector samples runtime statistics every refresh interval until
// ctx is done.
func RunSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()

	CollectSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CollectSystemMetrics()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
