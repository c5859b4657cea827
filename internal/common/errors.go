// Package common defines shared constants and sentinel errors used across
// the HabitFlow server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (missing title, missing/ambiguous recurrence, bad dates).
	ErrorValidation = errors.New("validation error")

	// ErrorInvariant marks derived-state corruption, e.g. more completion
	// records on a day than habits due on it. Never clamped, always surfaced.
	ErrorInvariant = errors.New("invariant violation")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	ErrorEmailAlreadyExists = errors.New("email already registered")
)
