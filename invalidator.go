package authcache

import (
	"fmt"
	"sync"
	"time"
)

// DefaultSkipInterval is a default minimal duration between two Invalidator runs.
const DefaultSkipInterval = 15 * time.Second

// Invalidator is a registry of cache invalidation triggers.
//
// It allows dropping principals of several caching authenticators at once,
// for example when an identity provider revokes sessions.
type Invalidator struct {
	mu sync.Mutex

	// SkipInterval defines minimal duration between two cache invalidations (flood protection),
	// default 15s.
	SkipInterval time.Duration

	// Callbacks contains a list of functions to call on invalidate.
	Callbacks []func()

	lastRun time.Time
}

// Add registers InvalidateAll of every given cache.
func (i *Invalidator) Add(caches ...interface{ InvalidateAll() }) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, c := range caches {
		i.Callbacks = append(i.Callbacks, c.InvalidateAll)
	}
}

// Invalidate triggers cache invalidation.
func (i *Invalidator) Invalidate() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.Callbacks) == 0 {
		return ErrNothingToInvalidate
	}

	if i.SkipInterval == 0 {
		i.SkipInterval = DefaultSkipInterval
	}

	if !i.lastRun.IsZero() && time.Since(i.lastRun) < i.SkipInterval {
		return fmt.Errorf("%w at %s, %s did not pass",
			ErrAlreadyInvalidated, i.lastRun.String(), i.SkipInterval.String())
	}

	i.lastRun = time.Now()
	for _, cb := range i.Callbacks {
		cb()
	}

	return nil
}
