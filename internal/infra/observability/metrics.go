package observability

import (
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Operation and label names shared by services and the engine snapshot.
const (
	OpDashboard = "dashboard"

	CacheDashboard = "dashboard"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	projections     *prometheus.CounterVec
	payoffOutcomes  *prometheus.CounterVec
	dashboards      prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests build as many
// instances as they need.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "runway_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runway_store_errors_total",
				Help: "Total errors returned by the persistence backend.",
			},
			[]string{"backend"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runway_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runway_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		projections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runway_projections_total",
				Help: "Projections computed, by kind.",
			},
			[]string{"kind"},
		),
		payoffOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runway_payoff_outcomes_total",
				Help: "Payoff simulations by terminal status.",
			},
			[]string{"status"},
		),
		dashboards: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "runway_dashboards_built_total",
				Help: "Dashboards assembled from the store (cache misses).",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(backend string) {
	m.storeErrors.WithLabelValues(backend).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrProjection counts one projection of the given kind.
func (m *Metrics) IncrProjection(kind string) {
	m.projections.WithLabelValues(kind).Inc()
}

// IncrPayoffOutcome counts a payoff simulation by its status.
func (m *Metrics) IncrPayoffOutcome(status string) {
	m.payoffOutcomes.WithLabelValues(status).Inc()
}

// IncrDashboard counts a freshly built dashboard.
func (m *Metrics) IncrDashboard() {
	m.dashboards.Inc()
}

// Snapshot summarizes engine counters for GET /v1/metrics/engine.
// Prometheus counters are cumulative, so the period is always all_time.
func (m *Metrics) Snapshot(projectionKinds, backends []string) *domain.EngineMetrics {
	var projections, storeErrors float64
	for _, k := range projectionKinds {
		projections += counterValue(m.projections.WithLabelValues(k))
	}
	for _, b := range backends {
		storeErrors += counterValue(m.storeErrors.WithLabelValues(b))
	}

	hits := counterValue(m.cacheHits.WithLabelValues(CacheDashboard))
	misses := counterValue(m.cacheMisses.WithLabelValues(CacheDashboard))
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.EngineMetrics{
		DashboardsBuilt: int64(counterValue(m.dashboards)),
		Projections:     int64(projections),
		StalledPayoffs:  int64(counterValue(m.payoffOutcomes.WithLabelValues("stalled"))),
		StoreErrors:     int64(storeErrors),
		CacheHitRate:    hitRate,
		AvgDashboardMs:  m.avgDurationMs(OpDashboard),
		Period:          "all_time",
	}
}

func (m *Metrics) avgDurationMs(operation string) float64 {
	obs, err := m.requestDuration.GetMetricWithLabelValues(operation)
	if err != nil {
		return 0
	}
	metric := &dto.Metric{}
	if err := obs.(prometheus.Metric).Write(metric); err != nil || metric.Histogram == nil {
		return 0
	}
	count := metric.Histogram.GetSampleCount()
	if count == 0 {
		return 0
	}
	return metric.Histogram.GetSampleSum() / float64(count) * 1000
}

// counterValue extracts the current value of a counter.
func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
