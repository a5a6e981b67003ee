// Package common defines shared constants and sentinel errors used across
// the sync engine's layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors surfaced by the write facade before anything is
	// persisted.
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyName       = errors.New("empty name")

	// ErrBadPayload marks an outbox entry whose snapshot cannot be
	// deserialized. It is permanent for that entry only.
	ErrBadPayload = errors.New("malformed payload")
)
