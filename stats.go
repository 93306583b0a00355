package authcache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Metric names reported to stats.Tracker, labeled with "name" of cache instance.
const (
	MetricHit        = "auth_cache_hit"
	MetricMiss       = "auth_cache_miss"
	MetricLoad       = "auth_cache_load"
	MetricFailed     = "auth_cache_load_failed"
	MetricEvict      = "auth_cache_evict"
	MetricInvalidate = "auth_cache_invalidate"
	MetricItems      = "auth_cache_items"
)

// counters are striped to keep hit path free of contention.
type counters struct {
	hits          *xsync.Counter
	misses        *xsync.Counter
	loads         *xsync.Counter
	loadSuccesses *xsync.Counter
	loadFailures  *xsync.Counter
	evictions     *xsync.Counter
	loadNanos     *xsync.Counter
}

func newCounters() counters {
	return counters{
		hits:          xsync.NewCounter(),
		misses:        xsync.NewCounter(),
		loads:         xsync.NewCounter(),
		loadSuccesses: xsync.NewCounter(),
		loadFailures:  xsync.NewCounter(),
		evictions:     xsync.NewCounter(),
		loadNanos:     xsync.NewCounter(),
	}
}

func (c counters) snapshot() CacheStats {
	return CacheStats{
		HitCount:         c.hits.Value(),
		MissCount:        c.misses.Value(),
		LoadCount:        c.loads.Value(),
		LoadSuccessCount: c.loadSuccesses.Value(),
		LoadFailureCount: c.loadFailures.Value(),
		EvictionCount:    c.evictions.Value(),
		TotalLoadTime:    time.Duration(c.loadNanos.Value()),
	}
}
