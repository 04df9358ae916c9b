package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Turn counters
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "turns_total",
			Help:      "Total generation turns by terminal status",
		},
		[]string{"provider", "status"},
	)

	// Turn duration histogram
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "turn_duration_seconds",
			Help:      "Turn duration from prepare to finalize in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// Stream event counter
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "stream_events_total",
			Help:      "Provider stream events consumed",
		},
		[]string{"type"},
	)

	// Content truncation counter
	ContentTruncationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "content_truncations_total",
			Help:      "Assistant messages that hit the content cap",
		},
	)

	// Scheduler depth gauge
	SchedulerDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "scheduler_depth",
			Help:      "Background job queue depth",
		},
	)

	// Background jobs counter
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "jobs_total",
			Help:      "Total background jobs processed",
		},
		[]string{"kind", "status"},
	)

	// Citation resolution counter
	CitationResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3chat",
			Subsystem: "chat_api",
			Name:      "citation_resolutions_total",
			Help:      "Citation lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordTurn records a finished generation turn
func RecordTurn(provider, status string, durationSec float64) {
	TurnsTotal.WithLabelValues(provider, status).Inc()
	TurnDuration.WithLabelValues(provider).Observe(durationSec)
}

// RecordStreamEvent records one consumed provider stream event
func RecordStreamEvent(eventType string) {
	StreamEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordContentTruncation records an append that hit the content cap
func RecordContentTruncation() {
	ContentTruncationsTotal.Inc()
}

// SetSchedulerDepth sets the current job queue depth
func SetSchedulerDepth(depth int) {
	SchedulerDepth.Set(float64(depth))
}

// RecordJob records a background job execution
func RecordJob(kind, status string) {
	JobsTotal.WithLabelValues(kind, status).Inc()
}

// RecordCitationResolution records a citation lookup
func RecordCitationResolution(outcome string) {
	CitationResolutionsTotal.WithLabelValues(outcome).Inc()
}
