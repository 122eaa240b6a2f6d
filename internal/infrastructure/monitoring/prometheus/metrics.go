package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/TreatIQ-Intelligence/internal/intelligence/success_predictor"
)

// AppMetrics is the TreatIQ metric set.  It implements the prediction
// engine's Metrics hook.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Prediction engine
	PredictionsTotal         CounterVec
	SuccessProbability       HistogramVec
	ConfidenceScore          HistogramVec
	BatchesTotal             CounterVec
	BatchDuration            HistogramVec
	BatchSize                HistogramVec
	ComputationFailuresTotal CounterVec

	// Infrastructure
	StoreQueryDuration     HistogramVec
	StoreErrorsTotal       CounterVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	MessagesTotal          CounterVec
	MessageProcessDuration HistogramVec
	HealthCheckStatus      GaugeVec
}

var _ success_predictor.Metrics = (*AppMetrics)(nil)

// Buckets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultBatchDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}
	DefaultStoreDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
	PercentBuckets              = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	BatchSizeBuckets            = []float64{1, 2, 5, 10, 20, 50, 100}
)

// NewAppMetrics registers every metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "HTTP requests by route and status", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.PredictionsTotal = collector.RegisterCounter("predictions_total", "Treatment predictions produced", "category")
	m.SuccessProbability = collector.RegisterHistogram("prediction_success_probability", "Predicted success probability (percent)", PercentBuckets, "category")
	m.ConfidenceScore = collector.RegisterHistogram("prediction_confidence_score", "Prediction confidence (percent)", PercentBuckets, "category")
	m.BatchesTotal = collector.RegisterCounter("prediction_batches_total", "Prediction batches by outcome", "outcome")
	m.BatchDuration = collector.RegisterHistogram("prediction_batch_duration_seconds", "Prediction batch latency", DefaultBatchDurationBuckets, "outcome")
	m.BatchSize = collector.RegisterHistogram("prediction_batch_size", "Treatments requested per batch", BatchSizeBuckets)
	m.ComputationFailuresTotal = collector.RegisterCounter("prediction_computation_failures_total", "Treatments dropped by a computation error", "category")

	m.StoreQueryDuration = collector.RegisterHistogram("store_query_duration_seconds", "Treatment store query latency", DefaultStoreDurationBuckets, "store", "operation")
	m.StoreErrorsTotal = collector.RegisterCounter("store_errors_total", "Treatment store errors", "store", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessagesTotal = collector.RegisterCounter("messages_total", "Kafka messages handled", "topic", "result")
	m.MessageProcessDuration = collector.RegisterHistogram("message_process_duration_seconds", "Kafka message handling latency", DefaultHTTPDurationBuckets, "topic")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Dependency health (1=up, 0=down)", "component")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine hook
// ─────────────────────────────────────────────────────────────────────────────

func (m *AppMetrics) ObservePrediction(category string, successProbability, confidence int) {
	m.PredictionsTotal.WithLabelValues(category).Inc()
	m.SuccessProbability.WithLabelValues(category).Observe(float64(successProbability))
	m.ConfidenceScore.WithLabelValues(category).Observe(float64(confidence))
}

func (m *AppMetrics) ObserveBatch(outcome string, size int, duration time.Duration) {
	m.BatchesTotal.WithLabelValues(outcome).Inc()
	m.BatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.BatchSize.WithLabelValues().Observe(float64(size))
}

func (m *AppMetrics) IncComputationFailure(category string) {
	m.ComputationFailuresTotal.WithLabelValues(category).Inc()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// RecordHTTPRequest counts one finished request.
func (m *AppMetrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordStoreQuery records a store round trip and counts failures.
func (m *AppMetrics) RecordStoreQuery(store, operation string, duration time.Duration, err error) {
	m.StoreQueryDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrorsTotal.WithLabelValues(store, operation).Inc()
	}
}

// RecordCacheAccess counts a hit or a miss.
func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordMessage counts a consumed message by result: ok, retry or dlq.
func (m *AppMetrics) RecordMessage(topic, result string, duration time.Duration) {
	m.MessagesTotal.WithLabelValues(topic, result).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// SetHealth records a dependency probe.
func (m *AppMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
