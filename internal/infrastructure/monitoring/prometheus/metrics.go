package prometheus

import (
	"strconv"
	"time"
)

// Run outcomes used as the status label of runs_total.
const (
	RunStatusComplete = "complete"
	RunStatusPartial  = "partial"
	RunStatusFailed   = "failed"
	RunStatusCached   = "cached"
)

// ConsolidationMetrics holds the pipeline and HTTP metrics.
type ConsolidationMetrics struct {
	RunsTotal            CounterVec
	RecordsIngestedTotal CounterVec
	RecordsRejectedTotal CounterVec
	FamiliesTotal        CounterVec
	RunDuration          HistogramVec
	StageDuration        HistogramVec
	BudgetExhaustedTotal CounterVec
	CacheHitsTotal       CounterVec
	CacheMissesTotal     CounterVec
	EventsTotal          CounterVec

	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec
}

// NewConsolidationMetrics registers every metric on collector.
func NewConsolidationMetrics(collector MetricsCollector) *ConsolidationMetrics {
	return &ConsolidationMetrics{
		RunsTotal:            collector.RegisterCounter("runs_total", "Consolidation runs by outcome", "status"),
		RecordsIngestedTotal: collector.RegisterCounter("records_ingested_total", "Raw records received", "source"),
		RecordsRejectedTotal: collector.RegisterCounter("records_rejected_total", "Records rejected during merge", "source"),
		FamiliesTotal:        collector.RegisterCounter("families_total", "Families produced by clustering"),
		RunDuration:          collector.RegisterHistogram("run_duration_seconds", "End-to-end run duration", nil),
		StageDuration:        collector.RegisterHistogram("stage_duration_seconds", "Duration of one pipeline stage", nil, "stage"),
		BudgetExhaustedTotal: collector.RegisterCounter("budget_exhausted_total", "Runs that hit the analysis budget"),
		CacheHitsTotal:       collector.RegisterCounter("cache_hits_total", "Result cache hits"),
		CacheMissesTotal:     collector.RegisterCounter("cache_misses_total", "Result cache misses"),
		EventsTotal:          collector.RegisterCounter("events_total", "Kafka events by topic and result", "topic", "result"),

		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", nil, "method", "path"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests"),
	}
}

// RecordRun records one finished run.
func (m *ConsolidationMetrics) RecordRun(status string, families int, d time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.FamiliesTotal.WithLabelValues().Add(float64(families))
	m.RunDuration.WithLabelValues().Observe(d.Seconds())
	if status == RunStatusPartial {
		m.BudgetExhaustedTotal.WithLabelValues().Inc()
	}
}

// RecordIngested counts raw records per declared source.
func (m *ConsolidationMetrics) RecordIngested(source string, n int) {
	if source == "" {
		source = "unknown"
	}
	m.RecordsIngestedTotal.WithLabelValues(source).Add(float64(n))
}

func (m *ConsolidationMetrics) RecordRejected(source string) {
	if source == "" {
		source = "unknown"
	}
	m.RecordsRejectedTotal.WithLabelValues(source).Inc()
}

func (m *ConsolidationMetrics) RecordStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *ConsolidationMetrics) RecordCacheAccess(hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues().Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues().Inc()
}

func (m *ConsolidationMetrics) RecordEvent(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsTotal.WithLabelValues(topic, result).Inc()
}

func (m *ConsolidationMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

//Personal.AI order the ending
