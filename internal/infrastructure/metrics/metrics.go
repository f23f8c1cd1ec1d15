package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AttributionMetrics holds the attribution tracking counters
type AttributionMetrics struct {
	// Captured / skipped records
	CapturesTotal prometheus.CounterVec
	IgnoredTotal  prometheus.CounterVec
	ExpiredTotal  prometheus.CounterVec

	// Slug resolution
	ResolutionsTotal prometheus.CounterVec

	// Click logging
	ClickLogsTotal      prometheus.CounterVec
	ClickLogDuration    prometheus.HistogramVec
	ClickPublishedTotal prometheus.CounterVec

	// Fire-and-forget tasks
	AsyncFailuresTotal prometheus.CounterVec

	// Store errors
	StoreErrorsTotal prometheus.CounterVec
}

// NewAttributionMetrics registers the metrics on reg. A nil reg means the default registry.
func NewAttributionMetrics(reg prometheus.Registerer) *AttributionMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &AttributionMetrics{
		CapturesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_captures_total",
				Help: "Attribution records written for a new code",
			},
			[]string{"channel"},
		),

		IgnoredTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_ignored_total",
				Help: "Visits carrying a code that did not change the stored record",
			},
			[]string{"channel", "reason"},
		),

		ExpiredTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_expired_total",
				Help: "Attribution records purged after their time-to-live",
			},
			[]string{"channel"},
		),

		ResolutionsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_slug_resolutions_total",
				Help: "Product slug lookups by result",
			},
			[]string{"result"},
		),

		ClickLogsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_click_logs_total",
				Help: "Click log attempts by outcome",
			},
			[]string{"channel", "outcome"},
		),

		ClickLogDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attribution_click_log_duration_seconds",
				Help:    "Time spent resolving and inserting one click",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms, 10ms, 20ms...
			},
			[]string{"channel"},
		),

		ClickPublishedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_click_events_published_total",
				Help: "Click events handed to the event stream by outcome",
			},
			[]string{"channel", "outcome"},
		),

		AsyncFailuresTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_async_failures_total",
				Help: "Fire-and-forget tasks that finished with an error",
			},
			[]string{"task"},
		),

		StoreErrorsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_store_errors_total",
				Help: "Attribution store operations that failed",
			},
			[]string{"channel", "op"},
		),
	}
}

func (m *AttributionMetrics) RecordCapture(channel string) {
	m.CapturesTotal.WithLabelValues(channel).Inc()
}

func (m *AttributionMetrics) RecordIgnored(channel, reason string) {
	m.IgnoredTotal.WithLabelValues(channel, reason).Inc()
}

func (m *AttributionMetrics) RecordExpired(channel string) {
	m.ExpiredTotal.WithLabelValues(channel).Inc()
}

func (m *AttributionMetrics) RecordResolution(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.ResolutionsTotal.WithLabelValues(result).Inc()
}

func (m *AttributionMetrics) RecordResolutionError() {
	m.ResolutionsTotal.WithLabelValues("error").Inc()
}

// RecordClickLog outcome is one of logged, not_found, inactive, failed
func (m *AttributionMetrics) RecordClickLog(channel, outcome string, durationSeconds float64) {
	m.ClickLogsTotal.WithLabelValues(channel, outcome).Inc()
	m.ClickLogDuration.WithLabelValues(channel).Observe(durationSeconds)
}

func (m *AttributionMetrics) RecordClickPublished(channel string, ok bool) {
	outcome := "failed"
	if ok {
		outcome = "published"
	}
	m.ClickPublishedTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *AttributionMetrics) RecordAsyncFailure(task string) {
	m.AsyncFailuresTotal.WithLabelValues(task).Inc()
}

func (m *AttributionMetrics) RecordStoreError(channel, op string) {
	m.StoreErrorsTotal.WithLabelValues(channel, op).Inc()
}
