// Package metrics provides Prometheus metrics for the tradeflow service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by the throttler.
const (
	OutcomeCached   = "cached"
	OutcomeDeferred = "deferred"
	OutcomeFetched  = "fetched"
)

// Fetch results recorded when a network request completes.
const (
	FetchSuccess  = "success"
	FetchConflict = "conflict"
	FetchError    = "error"
	FetchCanceled = "canceled"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Throttler
	submissions      *prometheus.CounterVec
	fetches          *prometheus.CounterVec
	fetchLatency     prometheus.Histogram
	retriesScheduled prometheus.Counter
	historySize      prometheus.Gauge
	retryQueueSize   prometheus.Gauge
	inFlight         prometheus.Gauge

	// Fact store
	factsTotal      prometheus.Gauge
	mergeInserted   prometheus.Counter
	mergeDuplicates prometheus.Counter
	mergeConflicts  prometheus.Counter
	queryLatency    prometheus.Histogram

	// Fetch job queue and workers
	jobQueueSize      prometheus.Gauge
	jobQueueCapacity  prometheus.Gauge
	jobEnqueueErrors  prometheus.Counter
	workerActiveCount prometheus.Gauge
	workerLatency     prometheus.Histogram

	// Reference tables
	referenceEntries *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager registering on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tradeflow",
		subsystem:        "cache",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      prometheus.Labels{},
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "submissions_total",
		Help:        "Query submissions by outcome (cached, deferred, fetched)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetches_total",
		Help:        "Completed upstream fetches by result",
		ConstLabels: m.constLabels,
	}, []string{"result"})

	m.fetchLatency = m.histogram("fetch_latency_milliseconds", "Upstream fetch latency in milliseconds")
	m.retriesScheduled = m.counter("retries_scheduled_total", "Deferred submissions scheduled for retry")
	m.historySize = m.gauge("history_size", "Signatures already fetched in this process")
	m.retryQueueSize = m.gauge("retry_queue_size", "Signatures waiting for a retry")
	m.inFlight = m.gauge("in_flight", "Signatures currently being fetched")

	m.factsTotal = m.gauge("facts_total", "Trade facts held by the fact store")
	m.mergeInserted = m.counter("merge_inserted_total", "Facts inserted by merges")
	m.mergeDuplicates = m.counter("merge_duplicates_total", "Incoming facts discarded as duplicates")
	m.mergeConflicts = m.counter("merge_conflicts_total", "Incoming facts rejected for a conflicting value")
	m.queryLatency = m.histogram("store_query_latency_milliseconds", "Fact store query latency in milliseconds")

	m.jobQueueSize = m.gauge("job_queue_size", "Fetch jobs waiting for a worker")
	m.jobQueueCapacity = m.gauge("job_queue_capacity", "Capacity of the fetch job queue")
	m.jobEnqueueErrors = m.counter("job_enqueue_errors_total", "Fetch jobs rejected by the queue")
	m.workerActiveCount = m.gauge("worker_active_count", "Fetch workers running")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Fetch job processing latency in milliseconds")

	m.referenceEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reference_entries",
		Help:        "Entries loaded per reference table",
		ConstLabels: m.constLabels,
	}, []string{"table"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordSubmission counts a throttler submission by outcome.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordFetch counts a completed fetch and observes its latency.
func RecordFetch(result string, latencyMs float64) {
	globalManager.fetches.WithLabelValues(result).Inc()
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordRetryScheduled counts a deferred submission.
func RecordRetryScheduled() {
	globalManager.retriesScheduled.Inc()
}

// UpdateThrottlerState sets the history, retry queue and in-flight gauges.
func UpdateThrottlerState(history, queued, inFlight int) {
	globalManager.historySize.Set(float64(history))
	globalManager.retryQueueSize.Set(float64(queued))
	globalManager.inFlight.Set(float64(inFlight))
}

// UpdateFactsTotal sets the fact store size.
func UpdateFactsTotal(count int) {
	globalManager.factsTotal.Set(float64(count))
}

// RecordMerge adds the outcome of one merge.
func RecordMerge(inserted, duplicates, conflicts int) {
	globalManager.mergeInserted.Add(float64(inserted))
	globalManager.mergeDuplicates.Add(float64(duplicates))
	globalManager.mergeConflicts.Add(float64(conflicts))
}

// RecordStoreQueryLatency observes a fact store query.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.queryLatency.Observe(latencyMs)
}

// UpdateJobQueue sets the fetch job queue size and capacity.
func UpdateJobQueue(size, capacity int) {
	globalManager.jobQueueSize.Set(float64(size))
	globalManager.jobQueueCapacity.Set(float64(capacity))
}

// RecordJobEnqueueError counts a rejected fetch job.
func RecordJobEnqueueError() {
	globalManager.jobEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of running fetch workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerLatency observes the processing time of one fetch job.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateReferenceEntries sets the entry count of a reference table.
func UpdateReferenceEntries(table string, count int) {
	globalManager.referenceEntries.WithLabelValues(table).Set(float64(count))
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry the global manager registers on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
