// Package metrics provides Prometheus metrics for the ffbrank scraper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the scraper.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Fetching
	fetchRequests *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	emptyResults  *prometheus.CounterVec

	// Extraction and normalization
	expertsExtracted prometheus.Counter
	rowsSkipped      prometheus.Counter
	playersDropped   prometheus.Counter
	rankingsWritten  prometheus.Counter

	// Registry
	registryEntries       prometheus.Gauge
	registryMerges        *prometheus.CounterVec
	registryMergeDuration prometheus.Histogram

	// Queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueueTotal prometheus.Counter
	workerActiveCount prometheus.Gauge
	tasksProcessed    *prometheus.CounterVec
	taskLatency       prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ffbrank",
		subsystem:        "scraper",
		histogramBuckets: []float64{5, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.fetchRequests = auto.NewCounterVec(
		m.counterOpts("fetch_requests_total", "Remote fetches by kind (document, api) and outcome"),
		[]string{"kind", "outcome"},
	)
	m.fetchLatency = auto.NewHistogramVec(
		m.histogramOpts("fetch_latency_milliseconds", "Remote fetch latency in milliseconds"),
		[]string{"kind"},
	)
	m.emptyResults = auto.NewCounterVec(
		m.counterOpts("empty_results_total", "Slices that produced no data (soft failures)"),
		[]string{"kind"},
	)

	m.expertsExtracted = auto.NewCounter(m.counterOpts("experts_extracted_total", "Expert identities extracted from listing pages"))
	m.rowsSkipped = auto.NewCounter(m.counterOpts("rows_skipped_total", "Malformed listing rows skipped during extraction"))
	m.playersDropped = auto.NewCounter(m.counterOpts("players_dropped_total", "Ranking records dropped during normalization"))
	m.rankingsWritten = auto.NewCounter(m.counterOpts("rankings_written_total", "Ranking snapshots persisted"))

	m.registryEntries = auto.NewGauge(m.gaugeOpts("registry_entries", "Entries in the expert registry after the last merge"))
	m.registryMerges = auto.NewCounterVec(
		m.counterOpts("registry_merges_total", "Registry merge attempts by outcome"),
		[]string{"outcome"},
	)
	m.registryMergeDuration = auto.NewHistogram(m.histogramOpts("registry_merge_duration_milliseconds", "Load, merge and persist duration"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Tasks waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueEnqueueTotal = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Tasks enqueued"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently running"))
	m.tasksProcessed = auto.NewCounterVec(
		m.counterOpts("tasks_processed_total", "Tasks processed by outcome (ok, empty, error)"),
		[]string{"outcome"},
	)
	m.taskLatency = auto.NewHistogram(m.histogramOpts("task_latency_milliseconds", "Task processing latency in milliseconds"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordFetch records one remote fetch and its latency.
func RecordFetch(kind, outcome string, latencyMs float64) {
	globalManager.fetchRequests.WithLabelValues(kind, outcome).Inc()
	globalManager.fetchLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordEmptyResult counts a slice that produced nothing.
func RecordEmptyResult(kind string) {
	globalManager.emptyResults.WithLabelValues(kind).Inc()
}

// RecordExpertsExtracted adds n extracted identities.
func RecordExpertsExtracted(n int) {
	globalManager.expertsExtracted.Add(float64(n))
}

// RecordSkippedRows adds n skipped listing rows.
func RecordSkippedRows(n int) {
	globalManager.rowsSkipped.Add(float64(n))
}

// RecordDroppedPlayers adds n dropped ranking records.
func RecordDroppedPlayers(n int) {
	globalManager.playersDropped.Add(float64(n))
}

// RecordRankingWritten counts one persisted ranking snapshot.
func RecordRankingWritten() {
	globalManager.rankingsWritten.Inc()
}

// RecordRegistryMerge records a merge attempt.
func RecordRegistryMerge(outcome string, durationMs float64) {
	globalManager.registryMerges.WithLabelValues(outcome).Inc()
	globalManager.registryMergeDuration.Observe(durationMs)
}

// UpdateRegistryEntries sets the registry size gauge.
func UpdateRegistryEntries(count int) {
	globalManager.registryEntries.Set(float64(count))
}

// UpdateQueueSize sets the number of waiting tasks.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordTaskProcessed records a task outcome and latency.
func RecordTaskProcessed(outcome string, latencyMs float64) {
	globalManager.tasksProcessed.WithLabelValues(outcome).Inc()
	globalManager.taskLatency.Observe(latencyMs)
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
