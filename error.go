package authcache

import (
	"github.com/swaggest/usecase/status"
)

// SentinelError is an error.
type SentinelError string

const (
	// ErrInvalidSpec indicates malformed cache policy spec.
	ErrInvalidSpec = SentinelError("invalid cache spec")

	// ErrNothingToInvalidate indicates no callbacks were added to Invalidator.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")

	// ErrLoadPanicked is received by callers that waited for a load whose delegate panicked.
	ErrLoadPanicked = SentinelError("authenticator panicked during load")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}

// AuthenticationError signals that the authentication mechanism itself could not complete,
// for example because an upstream identity provider is unreachable.
//
// It is not a rejection of credentials: rejected credentials are reported as not found.
// CachingAuthenticator never caches or retries it and returns the delegate's value as is.
type AuthenticationError struct {
	Message string
	Cause   error
}

// NewAuthenticationError creates an authentication error with optional cause.
func NewAuthenticationError(message string, cause error) *AuthenticationError {
	return &AuthenticationError{Message: message, Cause: cause}
}

// Error implements error.
func (e *AuthenticationError) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	if e.Message == "" {
		return e.Cause.Error()
	}

	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the cause.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Status maps the error to a canonical status, so that transport layers can expose it as unavailability.
func (e *AuthenticationError) Status() status.Code {
	return status.Unavailable
}
