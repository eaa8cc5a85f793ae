package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AvailabilityMetrics records cache behavior and calculation latency for the
// package availability engine.
type AvailabilityMetrics struct {
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	calcDuration prometheus.Histogram
	batchErrors  prometheus.Counter
}

// NewAvailabilityMetrics registers the engine metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	if reg == nil {
		return &AvailabilityMetrics{}
	}
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_hits_total",
		Help: "Package availability results served from cache.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_misses_total",
		Help: "Package availability results recomputed from the store.",
	})
	calcDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "availability_calc_duration_seconds",
		Help:    "Duration of single-package availability calculations.",
		Buckets: prometheus.DefBuckets,
	})
	batchErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_batch_errors_total",
		Help: "Per-package failures isolated during batch availability runs.",
	})
	reg.MustRegister(cacheHits, cacheMisses, calcDuration, batchErrors)
	return &AvailabilityMetrics{
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		calcDuration: calcDuration,
		batchErrors:  batchErrors,
	}
}

// IncCacheHit counts a result served from cache.
func (m *AvailabilityMetrics) IncCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss counts a recomputation.
func (m *AvailabilityMetrics) IncCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCalcDuration records how long a single-package calculation took.
func (m *AvailabilityMetrics) ObserveCalcDuration(d time.Duration) {
	if m == nil || m.calcDuration == nil {
		return
	}
	m.calcDuration.Observe(d.Seconds())
}

// IncBatchError counts an isolated per-package batch failure.
func (m *AvailabilityMetrics) IncBatchError() {
	if m == nil || m.batchErrors == nil {
		return
	}
	m.batchErrors.Inc()
}
