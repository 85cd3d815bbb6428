// Package metrics exposes Prometheus collectors for the digest service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	articlesDelivered  *prometheus.CounterVec
	extractionFailures prometheus.Counter
	summaryFallbacks   prometheus.Counter
	trackerResets      prometheus.Counter
	pollCycles         *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		articlesDelivered = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_articles_delivered_total",
				Help: "Articles delivered to the reader, labeled by summary outcome.",
			},
			[]string{"summary"},
		)
		extractionFailures = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_extraction_failures_total",
				Help: "Candidates retired after failed or too-short extraction.",
			},
		)
		summaryFallbacks = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_summary_fallbacks_total",
				Help: "Deliveries that degraded to the excerpt fallback body.",
			},
		)
		trackerResets = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_tracker_resets_total",
				Help: "Tracker resets triggered by candidate exhaustion.",
			},
		)
		pollCycles = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_poll_cycles_total",
				Help: "Inbox poll cycles, labeled by result.",
			},
			[]string{"result"},
		)
		runDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digest_run_duration_seconds",
				Help:    "Wall time of scheduled jobs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		)
	})
}

// ArticleDelivered counts a delivery; summary is "ok" or "fallback".
func ArticleDelivered(summary string) {
	if articlesDelivered != nil {
		articlesDelivered.WithLabelValues(summary).Inc()
	}
}

// ExtractionFailed counts a retired candidate.
func ExtractionFailed() {
	if extractionFailures != nil {
		extractionFailures.Inc()
	}
}

// SummaryFallback counts a degraded delivery.
func SummaryFallback() {
	if summaryFallbacks != nil {
		summaryFallbacks.Inc()
	}
}

// TrackerReset counts an exhaustion-triggered reset.
func TrackerReset() {
	if trackerResets != nil {
		trackerResets.Inc()
	}
}

// PollCycle counts an inbox poll; result is "hit", "miss", or "error".
func PollCycle(result string) {
	if pollCycles != nil {
		pollCycles.WithLabelValues(result).Inc()
	}
}

// ObserveRunDuration records how long a scheduled job took.
func ObserveRunDuration(job string, seconds float64) {
	if runDuration != nil {
		runDuration.WithLabelValues(job).Observe(seconds)
	}
}
