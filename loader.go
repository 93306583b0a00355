package authcache

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// flight is a load in progress, waiters receive its outcome once done is closed.
type flight[P any] struct {
	done chan struct{}

	// invalidated is set when credential of this flight is invalidated while loading.
	invalidated atomic.Bool

	principal P
	found     bool
	err       error
}

// load resolves credential with underlying authenticator, concurrent calls for the same credential
// are served by a single invocation.
func (c *CachingAuthenticator[C, P]) load(ctx context.Context, credential C) (P, bool, error) {
	f := &flight[P]{done: make(chan struct{}), err: ErrLoadPanicked}

	if active, loaded := c.flights.LoadOrStore(credential, f); loaded {
		return c.waitForLoad(ctx, credential, active)
	}

	// Releasing waiters, outcome is already populated.
	defer func() {
		c.flights.Delete(credential)
		close(f.done)
	}()

	// Value could have been stored by a load that finished after lookup.
	if !SkipRead(ctx) {
		now := c.now()

		if e, ok := c.entries.Load(credential); ok && !c.expired(e, now) {
			// Request is already counted as a miss, only recency is updated.
			c.touch(e, now)

			f.principal, f.found, f.err = e.principal, true, nil

			return f.principal, true, nil
		}
	}

	f.principal, f.found, f.err = c.doLoad(ctx, credential, f)

	return f.principal, f.found, f.err
}

func (c *CachingAuthenticator[C, P]) waitForLoad(ctx context.Context, credential C, f *flight[P]) (P, bool, error) {
	if c.log != nil {
		c.log.Debug(ctx, "waiting for auth cache load",
			"name", c.config.Name,
			"credential", fingerprint(credential))
	}

	select {
	case <-f.done:
		return f.principal, f.found, f.err
	case <-ctx.Done():
		var zero P

		return zero, false, ctx.Err()
	}
}

func (c *CachingAuthenticator[C, P]) doLoad(ctx context.Context, credential C, f *flight[P]) (P, bool, error) {
	gen := c.generation.Load()

	ctx, span := c.tracer.Start(ctx, "authcache.Load",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("authcache.name", c.config.Name)),
	)
	defer span.End()

	start := time.Now()
	returned := false

	// Invocation is counted even if delegate panics, panic is a failed load.
	defer func() {
		c.counters.loads.Inc()
		c.counters.loadNanos.Add(int64(time.Since(start)))

		if c.stat != nil {
			c.stat.Add(ctx, MetricLoad, 1, "name", c.config.Name)
		}

		if !returned {
			c.counters.loadFailures.Inc()
			span.SetStatus(codes.Error, ErrLoadPanicked.Error())

			if c.stat != nil {
				c.stat.Add(ctx, MetricFailed, 1, "name", c.config.Name)
			}
		}
	}()

	principal, found, err := c.delegate.Authenticate(ctx, credential)
	elapsed := time.Since(start)
	returned = true

	span.SetAttributes(attribute.Bool("authcache.found", found && err == nil))

	switch {
	case err != nil:
		c.counters.loadFailures.Inc()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if c.stat != nil {
			c.stat.Add(ctx, MetricFailed, 1, "name", c.config.Name)
		}

		if c.log != nil {
			c.log.Warn(ctx, "authentication failed",
				"error", err,
				"name", c.config.Name,
				"credential", fingerprint(credential),
				"elapsed", elapsed)
		}

		c.discard(ctx, credential)

		return principal, false, err

	case !found:
		c.counters.loadFailures.Inc()

		if c.log != nil {
			c.log.Debug(ctx, "credential not authenticated",
				"name", c.config.Name,
				"credential", fingerprint(credential),
				"elapsed", elapsed)
		}

		c.discard(ctx, credential)

		return principal, false, nil
	}

	c.counters.loadSuccesses.Inc()
	c.store(ctx, credential, principal, gen, f)

	return principal, true, nil
}

// store puts loaded principal to cache unless credential was invalidated since load started.
func (c *CachingAuthenticator[C, P]) store(ctx context.Context, credential C, principal P, gen uint64, f *flight[P]) {
	if c.config.MaximumSize < 0 {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.isClosed.Load() {
		return
	}

	if f.invalidated.Load() || c.generation.Load() != gen {
		if c.log != nil {
			c.log.Debug(ctx, "discarding principal loaded during invalidation",
				"name", c.config.Name,
				"credential", fingerprint(credential))
		}

		return
	}

	now := c.now()
	e := &entry[P]{principal: principal, writtenAt: now}
	e.accessedAt.Store(now.UnixNano())
	e.tick.Store(c.tick.Add(1))

	if _, exists := c.entries.Load(credential); !exists && c.config.MaximumSize > 0 {
		for c.entries.Size() >= c.config.MaximumSize {
			if !c.evictLeastRecentlyUsed(ctx) {
				break
			}
		}
	}

	c.entries.Store(credential, e)

	if c.log != nil {
		c.log.Debug(ctx, "stored principal to auth cache",
			"name", c.config.Name,
			"credential", fingerprint(credential))
	}
}

// discard removes principal that was cached before a failed load, possible with WithSkipRead.
func (c *CachingAuthenticator[C, P]) discard(ctx context.Context, credential C) {
	e, ok := c.entries.Load(credential)
	if !ok {
		return
	}

	if c.expired(e, c.now()) {
		c.evictExpired(ctx, credential, e)

		return
	}

	c.writeMu.Lock()
	_, removed := c.entries.LoadAndDelete(credential)
	c.writeMu.Unlock()

	if removed && c.log != nil {
		c.log.Debug(ctx, "discarded principal after failed load",
			"name", c.config.Name,
			"credential", fingerprint(credential))
	}
}
