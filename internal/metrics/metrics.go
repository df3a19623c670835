// Package metrics exposes Prometheus collectors for the scraper.
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
	scraperSearchesTotal      *prometheus.CounterVec
	scraperExtractionsTotal   *prometheus.CounterVec
	scraperPhaseRunsTotal     *prometheus.CounterVec
	scraperPhaseDurationSecs  *prometheus.HistogramVec
	scraperPoliteDelaySeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperSearchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_searches_total",
				Help: "Total search attempts, labeled by backend and outcome.",
			},
			[]string{"backend", "outcome"},
		)

		scraperExtractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_extractions_total",
				Help: "Total question extraction attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scraperPhaseRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_phase_runs_total",
				Help: "Total phase executions, labeled by phase and outcome.",
			},
			[]string{"phase", "outcome"},
		)

		scraperPhaseDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_phase_duration_seconds",
				Help:    "Histogram of phase wall-clock durations.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"phase"},
		)

		scraperPoliteDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_polite_delay_seconds",
				Help:    "Histogram of randomized politeness waits between requests.",
				Buckets: []float64{0.5, 1, 2, 4, 6, 8, 10},
			},
			[]string{"phase"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSearch increments the search counter for one backend attempt.
func ObserveSearch(backend, outcome string) {
	scraperSearchesTotal.WithLabelValues(backend, outcome).Inc()
}

// ObserveExtraction increments the extraction counter for the given outcome.
func ObserveExtraction(outcome string) {
	scraperExtractionsTotal.WithLabelValues(outcome).Inc()
}

// ObservePhase records one phase execution and its duration.
func ObservePhase(phase, outcome string, duration time.Duration) {
	scraperPhaseRunsTotal.WithLabelValues(phase, outcome).Inc()
	scraperPhaseDurationSecs.WithLabelValues(phase).Observe(duration.Seconds())
}

// ObservePoliteDelay records the duration of one politeness wait.
func ObservePoliteDelay(phase string, duration time.Duration) {
	scraperPoliteDelaySeconds.WithLabelValues(phase).Observe(duration.Seconds())
}
