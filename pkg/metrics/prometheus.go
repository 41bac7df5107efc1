// Package metrics provides Prometheus metrics for the appraisal service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are millisecond buckets for in-process work.
var latencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // constant bucket layout

// Manager owns all Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine
	evaluations       prometheus.Counter
	insufficientData  prometheus.Counter
	classifications   *prometheus.CounterVec
	unclassified      prometheus.Counter
	consolidations    prometheus.Counter
	evaluationLatency prometheus.Histogram

	// Result cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Submissions
	submissions          *prometheus.CounterVec
	submissionsDuplicate prometheus.Counter

	// Repository
	repositoryRecords       *prometheus.GaugeVec
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	leaderboardEntries      prometheus.Gauge

	// Recompute queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker pool
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "appraisal",
		subsystem:        "engine",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.evaluations = m.counter("evaluations_total", "Evaluator results computed")
	m.insufficientData = m.counter("insufficient_data_total", "Evaluations refused for lack of answered items")
	m.classifications = m.counterVec("classifications_total", "Results classified into a nine-box cell", "cell")
	m.unclassified = m.counter("unclassified_total", "Results left out of the nine-box for lack of potential")
	m.consolidations = m.counter("consolidations_total", "Multi-supervisor consolidations computed")
	m.evaluationLatency = m.histogram("evaluation_latency_milliseconds", "Time to evaluate one subject")

	m.cacheHits = m.counter("cache_hits_total", "Result cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Result cache misses")

	m.submissions = m.counterVec("submissions_total", "Response sets submitted", "role")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Submissions replayed with a known submission id")

	m.repositoryRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "repository_records", Help: "Records held by the store",
	}, []string{"kind"})
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Store write latency")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Store read latency")
	m.leaderboardEntries = m.gauge("leaderboard_entries", "Subjects ranked across all periods")

	m.queueSize = m.gauge("queue_size", "Recompute jobs waiting")
	m.queueCapacity = m.gauge("queue_capacity", "Recompute queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Recompute queue fill ratio")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Recompute jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Recompute jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Recompute jobs rejected by the queue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Time a job waited in the queue")

	m.workerCount = m.gauge("worker_count", "Recompute workers running")
	m.workerActiveCount = m.gauge("worker_active_count", "Recompute workers busy")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to process one recompute job")
	m.workerErrors = m.counter("worker_errors_total", "Recompute jobs that failed")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests served", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
}

// RecordEvaluation counts one computed evaluator result.
func RecordEvaluation() { globalManager.evaluations.Inc() }

// RecordInsufficientData counts an evaluation refused for lack of data.
func RecordInsufficientData() { globalManager.insufficientData.Inc() }

// RecordClassification counts a result placed in cell.
func RecordClassification(cell string) { globalManager.classifications.WithLabelValues(cell).Inc() }

// RecordUnclassified counts a result without a cell.
func RecordUnclassified() { globalManager.unclassified.Inc() }

// RecordConsolidation counts one consolidation.
func RecordConsolidation() { globalManager.consolidations.Inc() }

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) { globalManager.evaluationLatency.Observe(latencyMs) }

// RecordCacheHit counts a result cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss counts a result cache miss.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordSubmission counts a submitted response set.
func RecordSubmission(role string) { globalManager.submissions.WithLabelValues(role).Inc() }

// RecordSubmissionDuplicate counts a replayed submission.
func RecordSubmissionDuplicate() { globalManager.submissionsDuplicate.Inc() }

// UpdateRepositoryRecords sets the number of records of a kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordRepositoryUpdateLatency records store write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records store read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateLeaderboardEntries sets the number of ranked subjects.
func UpdateLeaderboardEntries(count int) { globalManager.leaderboardEntries.Set(float64(count)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records how long a job waited.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error in a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
