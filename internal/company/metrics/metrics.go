package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the company registry.
type Metrics struct {
	Registered     *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	LookupDuration prometheus.Histogram
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cnpjd_companies_registered_total",
			Help: "Total number of establishments registered, by kind",
		}, []string{"kind"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "cnpjd_company_cache_hits_total",
			Help: "Company lookups served from the cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "cnpjd_company_cache_misses_total",
			Help: "Company lookups that fell through to the store",
		}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cnpjd_company_lookup_duration_seconds",
			Help:    "Duration of batch company lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistered records a registration; kind is "head" or "branch".
func (m *Metrics) IncrementRegistered(kind string) {
	m.Registered.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) IncrementCacheMiss() {
	m.CacheMisses.Inc()
}

// ObserveLookup records the duration of a Lookup operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
