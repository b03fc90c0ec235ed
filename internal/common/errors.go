// Package common defines shared constants and sentinel errors used across
// the MediMinder client and server. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")

	// Transport errors.
	ErrUnavailable = errors.New("server unavailable")

	// Validation errors, usually wrapped with the offending field.
	ErrValidation = errors.New("validation error")
)
