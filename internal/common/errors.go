// Package common defines shared constants and sentinel errors used across
// AuditFlow components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Lifecycle errors.
	ErrorInvalidTransition = errors.New("invalid status transition")

	// Storage errors. The local database is the only durable state; when it
	// is unusable the current user action cannot make progress.
	ErrorStorageUnavailable = errors.New("local storage unavailable")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
