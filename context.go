package authcache

import (
	"context"
)

type skipReadCtxKey struct{}

// WithSkipRead returns context with cache read ignored.
//
// With such context CachingAuthenticator always calls underlying authenticator,
// a resolved principal replaces the cached one.
func WithSkipRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipReadCtxKey{}, true)
}

// SkipRead returns true if cache read is ignored in context.
func SkipRead(ctx context.Context) bool {
	_, ok := ctx.Value(skipReadCtxKey{}).(bool)

	return ok
}
