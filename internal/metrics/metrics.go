// Package metrics exposes Prometheus collectors for the detection service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	detectionsTotal      *prometheus.CounterVec
	vendorsDetectedTotal *prometheus.CounterVec
	cacheLookupsTotal    *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	batchesTotal         *prometheus.CounterVec
	activeAnalyses       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		detectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatlens_detections_total",
				Help: "Total URL detections, labeled by outcome and verification.",
			},
			[]string{"outcome", "verification"},
		)

		vendorsDetectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatlens_vendors_detected_total",
				Help: "Total vendor identifications across detections.",
			},
			[]string{"vendor"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatlens_cache_lookups_total",
				Help: "Result cache lookups, labeled by result (hit, stale, miss, error).",
			},
			[]string{"result"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatlens_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by result.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"result"},
		)

		batchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatlens_batches_total",
				Help: "Total batch jobs processed, labeled by status.",
			},
			[]string{"status"},
		)

		activeAnalyses = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chatlens_active_analyses",
				Help: "Number of URL analyses currently in flight.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDetection records a settled detection.
func ObserveDetection(outcome, verification string, vendors []string) {
	if detectionsTotal == nil {
		return
	}
	detectionsTotal.WithLabelValues(outcome, verification).Inc()
	for _, vendor := range vendors {
		vendorsDetectedTotal.WithLabelValues(vendor).Inc()
	}
}

// ObserveCacheLookup records a cache lookup outcome.
func ObserveCacheLookup(result string) {
	if cacheLookupsTotal == nil {
		return
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveFetch records a fetch attempt duration.
func ObserveFetch(result string, duration time.Duration) {
	if fetchDurationSeconds == nil {
		return
	}
	fetchDurationSeconds.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveBatch records a finished batch.
func ObserveBatch(status string) {
	if batchesTotal == nil {
		return
	}
	batchesTotal.WithLabelValues(status).Inc()
}

// AnalysisStarted increments the in-flight gauge.
func AnalysisStarted() {
	if activeAnalyses != nil {
		activeAnalyses.Inc()
	}
}

// AnalysisFinished decrements the in-flight gauge.
func AnalysisFinished() {
	if activeAnalyses != nil {
		activeAnalyses.Dec()
	}
}
