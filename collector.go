package authcache

import (
	"github.com/prometheus/client_golang/prometheus"
)

const collectorSubsystem = "auth_cache"

// Collector exports statistics of caching authenticators to Prometheus.
type Collector struct {
	sources []StatsSource

	loads        *prometheus.Desc
	loadFailures *prometheus.Desc
	loadSeconds  *prometheus.Desc
	hits         *prometheus.Desc
	misses       *prometheus.Desc
	evictions    *prometheus.Desc
	size         *prometheus.Desc
}

var _ prometheus.Collector = &Collector{}

// NewCollector creates a collector for given caches, cache Name is used as "name" label.
func NewCollector(namespace string, sources ...StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, collectorSubsystem, name),
			help,
			[]string{"name"},
			nil,
		)
	}

	return &Collector{
		sources:      sources,
		loads:        desc("loads_total", "Total number of underlying authenticator invocations."),
		loadFailures: desc("load_failures_total", "Total number of loads that did not resolve a principal."),
		loadSeconds:  desc("load_seconds_total", "Total time spent in underlying authenticator."),
		hits:         desc("hits_total", "Total number of cache hits."),
		misses:       desc("misses_total", "Total number of cache misses."),
		evictions:    desc("evictions_total", "Total number of entries evicted by size or expiration."),
		size:         desc("size", "Current number of cached principals."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.loads
	ch <- c.loadFailures
	ch <- c.loadSeconds
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.size
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.sources {
		st := s.Stats()
		name := s.Name()

		ch <- prometheus.MustNewConstMetric(c.loads, prometheus.CounterValue, float64(st.LoadCount), name)
		ch <- prometheus.MustNewConstMetric(c.loadFailures, prometheus.CounterValue, float64(st.LoadFailureCount), name)
		ch <- prometheus.MustNewConstMetric(c.loadSeconds, prometheus.CounterValue, st.TotalLoadTime.Seconds(), name)
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.HitCount), name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.MissCount), name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(st.EvictionCount), name)
		ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size()), name)
	}
}
