package authcache

import (
	"context"
	"time"
)

func (c *CachingAuthenticator[C, P]) expired(e *entry[P], now time.Time) bool {
	if ttl := c.config.ExpireAfterWrite; ttl > 0 && now.Sub(e.writtenAt) >= ttl {
		return true
	}

	if tti := c.config.ExpireAfterAccess; tti > 0 && now.UnixNano()-e.accessedAt.Load() >= int64(tti) {
		return true
	}

	return false
}

// evictExpired removes the entry unless it was already replaced.
func (c *CachingAuthenticator[C, P]) evictExpired(ctx context.Context, credential C, e *entry[P]) {
	deleted := false

	c.entries.Compute(credential, func(current *entry[P], loaded bool) (*entry[P], bool) {
		deleted = loaded && current == e

		return current, deleted
	})

	if deleted {
		c.evicted(ctx, credential, "expired")
	}
}

// evictLeastRecentlyUsed removes an entry with the oldest use, must be called with writeMu held.
func (c *CachingAuthenticator[C, P]) evictLeastRecentlyUsed(ctx context.Context) bool {
	var (
		victim    C
		victimUse uint64
		found     bool
	)

	c.entries.Range(func(credential C, e *entry[P]) bool {
		if use := e.tick.Load(); !found || use < victimUse {
			victim, victimUse, found = credential, use, true
		}

		return true
	})

	if !found {
		return false
	}

	if _, ok := c.entries.LoadAndDelete(victim); ok {
		c.evicted(ctx, victim, "size")
	}

	return true
}

func (c *CachingAuthenticator[C, P]) evicted(ctx context.Context, credential C, reason string) {
	c.counters.evictions.Inc()

	if c.stat != nil {
		c.stat.Add(ctx, MetricEvict, 1, "name", c.config.Name, "reason", reason)
	}

	if c.log != nil {
		c.log.Debug(ctx, "evicted auth cache entry",
			"name", c.config.Name,
			"credential", fingerprint(credential),
			"reason", reason)
	}
}

// CleanUp removes expired entries.
func (c *CachingAuthenticator[C, P]) CleanUp() {
	if !c.config.expires() {
		return
	}

	ctx := context.Background()
	now := c.now()

	type candidate struct {
		credential C
		entry      *entry[P]
	}

	var expired []candidate

	c.entries.Range(func(credential C, e *entry[P]) bool {
		if c.expired(e, now) {
			expired = append(expired, candidate{credential: credential, entry: e})
		}

		return true
	})

	for _, cand := range expired {
		c.evictExpired(ctx, cand.credential, cand.entry)
	}

	if c.log != nil && len(expired) > 0 {
		c.log.Debug(ctx, "cleared expired auth cache entries",
			"name", c.config.Name,
			"count", len(expired))
	}
}

// Invalidate removes cached principal of credential, if any.
func (c *CachingAuthenticator[C, P]) Invalidate(credential C) {
	c.InvalidateKeys(credential)
}

// InvalidateKeys removes cached principals of given credentials, missing ones are ignored.
//
// Loads of these credentials that are in progress do not store their results.
func (c *CachingAuthenticator[C, P]) InvalidateKeys(credentials ...C) {
	c.writeMu.Lock()

	removed := 0

	for _, credential := range credentials {
		if f, ok := c.flights.Load(credential); ok {
			f.invalidated.Store(true)
		}

		if _, ok := c.entries.LoadAndDelete(credential); ok {
			removed++
		}
	}
	c.writeMu.Unlock()

	c.invalidated(removed)
}

// InvalidateFunc removes cached principals of credentials that match the predicate.
//
// Predicate is evaluated against a snapshot of keys taken at call time,
// entries stored concurrently with the call may or may not be removed.
// Matching loads in progress do not store their results.
func (c *CachingAuthenticator[C, P]) InvalidateFunc(match func(credential C) bool) {
	// Flights are marked before entries are scanned, so a matching load either
	// skips storing or stores before the scan.
	c.flights.Range(func(credential C, f *flight[P]) bool {
		if match(credential) {
			f.invalidated.Store(true)
		}

		return true
	})

	var matched []C

	c.entries.Range(func(credential C, _ *entry[P]) bool {
		if match(credential) {
			matched = append(matched, credential)
		}

		return true
	})

	if len(matched) == 0 {
		return
	}

	c.InvalidateKeys(matched...)
}

// InvalidateAll removes all cached principals.
func (c *CachingAuthenticator[C, P]) InvalidateAll() {
	c.writeMu.Lock()
	c.generation.Add(1)
	removed := c.entries.Size()
	c.entries.Clear()
	c.writeMu.Unlock()

	c.invalidated(removed)
}

func (c *CachingAuthenticator[C, P]) invalidated(removed int) {
	ctx := context.Background()

	if c.stat != nil {
		c.stat.Add(ctx, MetricInvalidate, float64(removed), "name", c.config.Name)
	}

	if c.log != nil {
		c.log.Debug(ctx, "invalidated auth cache entries",
			"name", c.config.Name,
			"count", removed)
	}
}
