package authcache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vearutop/authcache"

// entry is a cached principal.
type entry[P any] struct {
	principal P
	writtenAt time.Time

	// accessedAt is a unix nano timestamp of last read.
	accessedAt atomic.Int64
	// tick orders entries by recency of use.
	tick atomic.Uint64
}

var _ Authenticator[string, any] = &CachingAuthenticator[string, any]{}

// CachingAuthenticator caches principals resolved by underlying Authenticator.
//
// Only resolved principals are cached, not found results and errors are passed through
// and never stored. Concurrent misses of the same credential share a single load.
//
// Please use New to create instance.
type CachingAuthenticator[C comparable, P any] struct {
	delegate Authenticator[C, P]

	entries *xsync.MapOf[C, *entry[P]]
	flights *xsync.MapOf[C, *flight[P]]

	// writeMu serializes inserts, evictions and invalidations.
	writeMu sync.Mutex
	// tick is a logical clock of entry uses.
	tick atomic.Uint64
	// generation is incremented by InvalidateAll and Close to discard results of racing loads.
	generation atomic.Uint64

	counters counters

	config Config
	log    ctxd.Logger
	stat   stats.Tracker
	tracer trace.Tracer
	now    func() time.Time

	closeOnce sync.Once
	closed    chan struct{}
	isClosed  atomic.Bool
}

// New creates a caching authenticator with optional configuration.
//
// Background cleanup is started when expiration or stats are configured,
// call Close to stop it.
func New[C comparable, P any](delegate Authenticator[C, P], cfg ...Config) *CachingAuthenticator[C, P] {
	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.CleanUpInterval == 0 {
		config.CleanUpInterval = DefaultCleanUpInterval
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	c := &CachingAuthenticator[C, P]{
		delegate: delegate,
		entries:  xsync.NewMapOf[C, *entry[P]](),
		flights:  xsync.NewMapOf[C, *flight[P]](),
		counters: newCounters(),
		config:   config,
		log:      config.Logger,
		stat:     config.Stats,
		tracer:   tp.Tracer(tracerName),
		now:      time.Now,
		closed:   make(chan struct{}),
	}

	if config.CleanUpInterval > 0 && (config.expires() || c.stat != nil) {
		go c.cleaner()
	}

	return c
}

// Name returns cache instance name.
func (c *CachingAuthenticator[C, P]) Name() string {
	return c.config.Name
}

// Authenticate returns cached principal or resolves it with underlying authenticator.
//
// Errors of underlying authenticator are returned as is.
func (c *CachingAuthenticator[C, P]) Authenticate(ctx context.Context, credential C) (P, bool, error) {
	if c.isClosed.Load() {
		return c.delegate.Authenticate(ctx, credential)
	}

	if !SkipRead(ctx) {
		if p, ok := c.lookup(ctx, credential); ok {
			return p, true, nil
		}
	} else {
		c.miss(ctx, credential)
	}

	return c.load(ctx, credential)
}

func (c *CachingAuthenticator[C, P]) lookup(ctx context.Context, credential C) (P, bool) {
	now := c.now()

	e, ok := c.entries.Load(credential)
	if ok && c.expired(e, now) {
		c.evictExpired(ctx, credential, e)

		ok = false
	}

	if !ok {
		c.miss(ctx, credential)

		var zero P

		return zero, false
	}

	c.touch(e, now)

	c.counters.hits.Inc()

	if c.stat != nil {
		c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)
	}

	if c.log != nil {
		c.log.Debug(ctx, "auth cache hit",
			"name", c.config.Name,
			"credential", fingerprint(credential))
	}

	return e.principal, true
}

// touch marks entry as used now.
func (c *CachingAuthenticator[C, P]) touch(e *entry[P], now time.Time) {
	e.accessedAt.Store(now.UnixNano())
	e.tick.Store(c.tick.Add(1))
}

func (c *CachingAuthenticator[C, P]) miss(ctx context.Context, credential C) {
	c.counters.misses.Inc()

	if c.stat != nil {
		c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)
	}

	if c.log != nil {
		c.log.Debug(ctx, "auth cache miss",
			"name", c.config.Name,
			"credential", fingerprint(credential))
	}
}

// Size returns number of resident entries.
func (c *CachingAuthenticator[C, P]) Size() int {
	return c.entries.Size()
}

// Stats returns a snapshot of cache counters.
func (c *CachingAuthenticator[C, P]) Stats() CacheStats {
	return c.counters.snapshot()
}

// Close stops background cleanup and drops cached entries.
//
// Closed instance delegates every call without caching.
func (c *CachingAuthenticator[C, P]) Close() {
	c.closeOnce.Do(func() {
		c.isClosed.Store(true)
		close(c.closed)

		c.writeMu.Lock()
		c.generation.Add(1)
		c.entries.Clear()
		c.writeMu.Unlock()
	})
}

func (c *CachingAuthenticator[C, P]) cleaner() {
	ticker := time.NewTicker(c.config.CleanUpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanUp()
			c.reportItemsCount()
		case <-c.closed:
			return
		}
	}
}

func (c *CachingAuthenticator[C, P]) reportItemsCount() {
	count := c.Size()

	if c.log != nil {
		c.log.Debug(context.Background(), "auth cache items count",
			"name", c.config.Name,
			"count", count,
		)
	}

	if c.stat != nil {
		c.stat.Set(context.Background(), MetricItems, float64(count), "name", c.config.Name)
	}
}

// fingerprint identifies credential in logs without exposing it.
func fingerprint(credential any) string {
	var h uint64

	if s, ok := credential.(string); ok {
		h = xxhash.Sum64String(s)
	} else {
		h = xxhash.Sum64String(fmt.Sprintf("%v", credential))
	}

	return strconv.FormatUint(h, 16)
}
