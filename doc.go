// Package authcache provides a caching decorator for credential authenticators.
// Focused on avoiding repeated expensive or rate-limited authentication checks
// without changing their outcome.
//
// Features:
//
//   - Only resolved principals are cached, rejected credentials and failures are never sticky.
//   - Errors of underlying authenticator are returned as is, without wrapping.
//   - Concurrent misses of the same credential are served by a single load.
//   - Size bound with least recently used eviction, expiration after write and after access.
//   - Invalidation of single credentials, sets, predicate matches and whole cache.
//   - Invalidation racing with a load discards the loaded principal instead of storing it.
//   - Hit, miss, load and eviction statistics, Prometheus collector.
//   - Allows logging, stats collection and load tracing.
package authcache
