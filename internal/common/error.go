// Package common defines shared constants and sentinel errors used across
// client and server layers of XConnect. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrActiveConflict = errors.New("active secret changed concurrently")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Secret layer. EncryptionFailure aborts a commit; IntegrityFailure means
	// the stored payload exists but cannot be opened (wrong key or tampering).
	ErrEncryptionFailure  = errors.New("encryption failure")
	ErrIntegrityFailure   = errors.New("integrity failure")
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Collaborator errors after categorization.
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrAuthorizationFailure  = errors.New("authorization failure")
	ErrRateLimited           = errors.New("rate limited")
	ErrSchemaFetchFailure    = errors.New("schema fetch failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsRetryable reports whether err is a transient failure worth one more try.
// Authentication and authorization failures are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthenticationFailure) || errors.Is(err, ErrAuthorizationFailure) {
		return false
	}
	return errors.Is(err, ErrBackendUnavailable)
}
