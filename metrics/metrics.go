package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the analytics service
type Metrics struct {
	// Forecast computations by operation and outcome
	Computations    *prometheus.CounterVec
	ComputeDuration *prometheus.HistogramVec

	// Result cache
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheErrors   *prometheus.CounterVec
	Invalidations *prometheus.CounterVec

	// Cache warm-up runs by outcome
	WarmRuns *prometheus.CounterVec
}

// New creates all collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Computations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_analytics_computations_total",
				Help: "Forecast computations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ComputeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retail_analytics_compute_duration_seconds",
				Help:    "Time spent computing a forecast, including history queries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_analytics_cache_hits_total",
				Help: "Forecast results served from cache",
			},
			[]string{"operation"},
		),
		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_analytics_cache_misses_total",
				Help: "Forecast lookups that had to be computed",
			},
			[]string{"operation"},
		),
		CacheErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_analytics_cache_errors_total",
				Help: "Cache backend failures by stage (get, set, decode, invalidate)",
			},
			[]string{"stage"},
		),
		Invalidations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_analytics_cache_invalidations_total",
				Help: "Cache invalidations by triggering event",
			},
			[]string{"event"},
		),
		WarmRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retail_analytics_cache_warm_runs_total",
				Help: "Scheduled cache warm-up runs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveComputation records one computation of operation that started at start.
func (m *Metrics) ObserveComputation(operation, outcome string, start time.Time) {
	m.Computations.WithLabelValues(operation, outcome).Inc()
	m.ComputeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
