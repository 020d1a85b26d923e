package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the gasprice metrics and the registry they live in. Each
// App gets its own registry so tests never collide on registration.
type Collector struct {
	Registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	Refreshes     prometheus.Counter
	StaleDiscards prometheus.Counter
	Records       prometheus.Gauge
	CacheLookups  *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		Registry: reg,
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gasprice_api_requests_total",
				Help: "Remote API requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		Refreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "gasprice_refreshes_total",
			Help: "Number of refresh triggers",
		}),
		StaleDiscards: factory.NewCounter(prometheus.CounterOpts{
			Name: "gasprice_stale_responses_total",
			Help: "Price list responses discarded because a newer request was already applied",
		}),
		Records: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gasprice_records",
			Help: "Number of price records currently held",
		}),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gasprice_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
	}
}

// ObserveRequest implements api.Observer.
func (c *Collector) ObserveRequest(endpoint, outcome string) {
	c.Requests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordHit counts a cache hit for the named cache.
func (c *Collector) RecordHit(cache string) {
	c.CacheLookups.WithLabelValues(cache, "hit").Inc()
}

// RecordMiss counts a cache miss for the named cache.
func (c *Collector) RecordMiss(cache string) {
	c.CacheLookups.WithLabelValues(cache, "miss").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}
