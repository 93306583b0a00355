package authcache

import (
	"context"
	"time"
)

// Authenticator resolves a credential into a principal.
//
// Not found (false with nil error) means credential was not accepted, it is not an error.
// An error means the mechanism itself failed, *AuthenticationError is used for domain failures.
type Authenticator[C comparable, P any] interface {
	Authenticate(ctx context.Context, credential C) (principal P, found bool, err error)
}

// AuthenticatorFunc implements Authenticator with a function.
type AuthenticatorFunc[C comparable, P any] func(ctx context.Context, credential C) (P, bool, error)

// Authenticate calls the function.
func (f AuthenticatorFunc[C, P]) Authenticate(ctx context.Context, credential C) (P, bool, error) {
	return f(ctx, credential)
}

// KeyInvalidator removes cached principals.
type KeyInvalidator[C comparable] interface {
	// Invalidate removes a single credential.
	Invalidate(credential C)

	// InvalidateKeys removes exactly given credentials, missing ones are ignored.
	InvalidateKeys(credentials ...C)

	// InvalidateFunc removes credentials matching the predicate.
	InvalidateFunc(match func(credential C) bool)

	// InvalidateAll removes all credentials.
	InvalidateAll()
}

// StatsSource exposes cache statistics.
type StatsSource interface {
	Name() string
	Size() int
	Stats() CacheStats
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	// HitCount is a number of lookups served from cache.
	HitCount int64

	// MissCount is a number of lookups that were not served from cache.
	MissCount int64

	// LoadCount is a number of underlying authenticator invocations.
	LoadCount int64

	// LoadSuccessCount is a number of loads that resolved a principal.
	LoadSuccessCount int64

	// LoadFailureCount is a number of loads that did not resolve a principal or failed.
	LoadFailureCount int64

	// EvictionCount is a number of entries removed by size or expiration policy.
	EvictionCount int64

	// TotalLoadTime is a time spent in underlying authenticator.
	TotalLoadTime time.Duration
}

// RequestCount returns total number of lookups.
func (s CacheStats) RequestCount() int64 {
	return s.HitCount + s.MissCount
}

// HitRate returns the ratio of hits to requests, 1 if there were no requests.
func (s CacheStats) HitRate() float64 {
	total := s.RequestCount()
	if total == 0 {
		return 1
	}

	return float64(s.HitCount) / float64(total)
}

// MissRate returns the ratio of misses to requests, 0 if there were no requests.
func (s CacheStats) MissRate() float64 {
	total := s.RequestCount()
	if total == 0 {
		return 0
	}

	return float64(s.MissCount) / float64(total)
}

// AverageLoadPenalty returns average time spent in a load.
func (s CacheStats) AverageLoadPenalty() time.Duration {
	if s.LoadCount == 0 {
		return 0
	}

	return s.TotalLoadTime / time.Duration(s.LoadCount)
}

// Minus returns the difference between two snapshots, negative values are floored to zero.
func (s CacheStats) Minus(other CacheStats) CacheStats {
	sub := func(a, b int64) int64 {
		if a < b {
			return 0
		}

		return a - b
	}

	return CacheStats{
		HitCount:         sub(s.HitCount, other.HitCount),
		MissCount:        sub(s.MissCount, other.MissCount),
		LoadCount:        sub(s.LoadCount, other.LoadCount),
		LoadSuccessCount: sub(s.LoadSuccessCount, other.LoadSuccessCount),
		LoadFailureCount: sub(s.LoadFailureCount, other.LoadFailureCount),
		EvictionCount:    sub(s.EvictionCount, other.EvictionCount),
		TotalLoadTime:    time.Duration(sub(int64(s.TotalLoadTime), int64(other.TotalLoadTime))),
	}
}
