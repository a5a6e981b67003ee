// Package remote defines the driver contract for the remote canonical
// store and provides its implementations: a Postgres JSONB document store
// for production and an in-memory store for tests.
//
// The remote store is the eventual source of truth for multi-device
// consistency; it may be unreachable for arbitrary periods, and every
// operation here can stall or fail with ErrUnavailable.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/smartcook/syncengine/internal/models"
)

// ErrUnavailable wraps any network-level failure talking to the remote
// store. Callers treat it as transient: the mutation stays queued and is
// retried on a later drain.
var ErrUnavailable = errors.New("remote store unavailable")

// ErrNotFound is returned by point lookups for absent documents.
var ErrNotFound = errors.New("remote document not found")

// Document is one canonical record. Owner is empty for shared catalog
// kinds (recipes, ingredients). NaturalKey is the business uniqueness key
// the appliers upsert by.
type Document struct {
	ID         string
	Kind       models.Kind
	OwnerID    string
	NaturalKey string
	Doc        []byte
	UpdatedAt  time.Time
}

// Store is the remote canonical store driver.
//
// All mutating operations are idempotent: upserting the same key twice
// converges on one document, and deleting an absent document is a success.
type Store interface {
	// Ping reports reachability. It is the connectivity monitor's probe.
	Ping(ctx context.Context) error

	// UpsertByNaturalKey writes doc under (kind, key), creating the
	// document if absent, and returns the document's id either way.
	UpsertByNaturalKey(ctx context.Context, kind models.Kind, key, ownerID string, doc []byte) (string, error)

	// UpsertByID overwrites the document with the given id.
	UpsertByID(ctx context.Context, kind models.Kind, id string, doc []byte) error

	// DeleteByID removes a document; absent is a success.
	DeleteByID(ctx context.Context, kind models.Kind, id string) error

	// DeleteByNaturalKey removes the document under (kind, key); absent is
	// a success.
	DeleteByNaturalKey(ctx context.Context, kind models.Kind, key string) error

	// GetByID returns one document or ErrNotFound.
	GetByID(ctx context.Context, kind models.Kind, id string) (*Document, error)

	// GetByNaturalKey returns the document under (kind, key) or ErrNotFound.
	GetByNaturalKey(ctx context.Context, kind models.Kind, key string) (*Document, error)

	// FindMany lists documents of a kind, optionally filtered by owner
	// (empty matches any), up to limit (0 means no limit).
	FindMany(ctx context.Context, kind models.Kind, ownerID string, limit int) ([]*Document, error)
}
