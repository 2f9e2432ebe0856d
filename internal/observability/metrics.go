package observability

import (
	"strconv"
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric represents a single metric
type Metric struct {
	Name      string                 `json:"name"`
	Type      MetricType             `json:"type"`
	Value     float64                `json:"value"`
	Labels    map[string]string      `json:"labels,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// MetricsCollector collects and stores application metrics
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics map[string]*Metric
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metric),
	}
}

// metricKey generates a unique key for a metric
func metricKey(name string, labels map[string]string) string {
	key := name
	if len(labels) > 0 {
		for k, v := range labels {
			key += "." + k + "=" + v
		}
	}
	return key
}

// Inc increments a counter metric
func (mc *MetricsCollector) Inc(name string, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		metric.Value++
		metric.Timestamp = time.Now()
	} else {
		mc.metrics[key] = &Metric{
			Name:      name,
			Type:      MetricTypeCounter,
			Value:     1,
			Labels:    labels,
			Timestamp: time.Now(),
		}
	}
}

// Add adds a value to a counter metric
func (mc *MetricsCollector) Add(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		metric.Value += value
		metric.Timestamp = time.Now()
	} else {
		mc.metrics[key] = &Metric{
			Name:      name,
			Type:      MetricTypeCounter,
			Value:     value,
			Labels:    labels,
			Timestamp: time.Now(),
		}
	}
}

// Set sets a gauge metric value
func (mc *MetricsCollector) Set(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	mc.metrics[key] = &Metric{
		Name:      name,
		Type:      MetricTypeGauge,
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now(),
	}
}

// Observe records a histogram observation
func (mc *MetricsCollector) Observe(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		// Simple histogram - just tracking count and sum for now
		if metric.Extra == nil {
			metric.Extra = make(map[string]interface{})
		}
		count := 1.0
		sum := value
		if c, ok := metric.Extra["count"].(float64); ok {
			count = c + 1
		}
		if s, ok := metric.Extra["sum"].(float64); ok {
			sum = s + value
		}
		metric.Extra["count"] = count
		metric.Extra["sum"] = sum
		metric.Value = sum / count // average
		metric.Timestamp = time.Now()
	} else {
		mc.metrics[key] = &Metric{
			Name:      name,
			Type:      MetricTypeHistogram,
			Value:     value,
			Labels:    labels,
			Timestamp: time.Now(),
			Extra: map[string]interface{}{
				"count": 1.0,
				"sum":   value,
			},
		}
	}
}

// Get retrieves a metric by name and labels
func (mc *MetricsCollector) Get(name string, labels map[string]string) (*Metric, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	key := metricKey(name, labels)
	metric, exists := mc.metrics[key]
	return metric, exists
}

// GetAll retrieves all metrics
func (mc *MetricsCollector) GetAll() map[string]*Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*Metric, len(mc.metrics))
	for k, v := range mc.metrics {
		result[k] = v
	}
	return result
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics = make(map[string]*Metric)
}

// Standard metric names
const (
	// Question metrics
	MetricQuestionTotal           = "missionquery_questions_total"
	MetricQuestionDuration        = "missionquery_question_duration_seconds"
	MetricQuestionSuccess         = "missionquery_questions_success_total"
	MetricQuestionFailure         = "missionquery_questions_failure_total"
	MetricQuestionCacheHits       = "missionquery_cache_hits_total"
	MetricQuestionCacheMisses     = "missionquery_cache_misses_total"
	MetricQuestionSafetyViolation = "missionquery_safety_violations_total"
	MetricQuestionEmptyResults    = "missionquery_empty_results_total"

	// Translation metrics
	MetricTranslationRequests = "translation_requests_total"
	MetricTranslationDuration = "translation_duration_seconds"
	MetricTranslationTokens   = "translation_tokens_total"
	MetricTranslationErrors   = "translation_errors_total"

	// Summary metrics
	MetricSummaryRequests  = "summary_requests_total"
	MetricSummaryFallbacks = "summary_fallbacks_total"

	// Store metrics
	MetricStoreQueries  = "store_queries_total"
	MetricStoreDuration = "store_query_duration_seconds"
	MetricStoreErrors   = "store_errors_total"

	// HTTP metrics
	MetricHTTPRequests     = "http_requests_total"
	MetricHTTPDuration     = "http_request_duration_seconds"
	MetricHTTPErrors       = "http_errors_total"
	MetricHTTPResponseSize = "http_response_size_bytes"

	// Ingestion metrics
	MetricIngestRows     = "ingest_rows_total"
	MetricIngestDuration = "ingest_duration_seconds"
	MetricIngestErrors   = "ingest_errors_total"
)

// Global metrics collector instance
var globalMetrics = NewMetricsCollector()

// GetGlobalMetrics returns the global metrics collector
func GetGlobalMetrics() *MetricsCollector {
	return globalMetrics
}

// RecordQuestionMetrics records metrics for one question interaction
func RecordQuestionMetrics(duration time.Duration, success bool, cached bool, errorType string) {
	metrics := GetGlobalMetrics()

	labels := map[string]string{}
	if errorType != "" {
		labels["error_type"] = errorType
	}

	metrics.Inc(MetricQuestionTotal, nil)

	if success {
		metrics.Inc(MetricQuestionSuccess, nil)
	} else {
		metrics.Inc(MetricQuestionFailure, labels)
	}

	if cached {
		metrics.Inc(MetricQuestionCacheHits, nil)
	} else {
		metrics.Inc(MetricQuestionCacheMisses, nil)
	}

	metrics.Observe(MetricQuestionDuration, duration.Seconds(), nil)
}

// RecordTranslationMetrics records metrics for reasoning-service calls
func RecordTranslationMetrics(operation string, duration time.Duration, tokens int, err error) {
	metrics := GetGlobalMetrics()

	labels := map[string]string{"operation": operation}

	metrics.Inc(MetricTranslationRequests, labels)
	metrics.Observe(MetricTranslationDuration, duration.Seconds(), labels)

	if tokens > 0 {
		metrics.Add(MetricTranslationTokens, float64(tokens), labels)
	}

	if err != nil {
		metrics.Inc(MetricTranslationErrors, labels)
	}
}

// RecordStoreMetrics records metrics for store query execution
func RecordStoreMetrics(duration time.Duration, err error) {
	metrics := GetGlobalMetrics()

	metrics.Inc(MetricStoreQueries, nil)
	metrics.Observe(MetricStoreDuration, duration.Seconds(), nil)

	if err != nil {
		metrics.Inc(MetricStoreErrors, nil)
	}
}

// RecordIngestMetrics records metrics for one table load
func RecordIngestMetrics(table string, rows int, duration time.Duration, err error) {
	metrics := GetGlobalMetrics()

	labels := map[string]string{"table": table}

	metrics.Observe(MetricIngestDuration, duration.Seconds(), labels)

	if err != nil {
		metrics.Inc(MetricIngestErrors, labels)
		return
	}
	metrics.Add(MetricIngestRows, float64(rows), labels)
}

// RecordHTTPMetrics records metrics for HTTP requests
func RecordHTTPMetrics(method, path string, statusCode int, duration time.Duration, responseSize int) {
	metrics := GetGlobalMetrics()

	labels := map[string]string{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(statusCode),
	}

	metrics.Inc(MetricHTTPRequests, labels)
	metrics.Observe(MetricHTTPDuration, duration.Seconds(), labels)

	if statusCode >= 400 {
		metrics.Inc(MetricHTTPErrors, labels)
	}

	if responseSize > 0 {
		metrics.Observe(MetricHTTPResponseSize, float64(responseSize), labels)
	}
}
