// Package fridge persists the local working set of a user's pantry items.
package fridge

import (
	"context"
	"time"

	"github.com/smartcook/syncengine/internal/models"
)

// Repository provides owner-scoped access to fridge items.
//
// The natural key is (owner, case-insensitive ingredient name, category);
// the store never holds two rows with the same key.
type Repository interface {
	// UpsertByNaturalKey inserts the item, or merges it into the existing
	// row with the same natural key by accumulating quantity. The returned
	// item reflects the stored state; merged reports which path was taken.
	UpsertByNaturalKey(ctx context.Context, item *models.FridgeItem) (stored *models.FridgeItem, merged bool, err error)

	// GetByID returns the owner's item with the given local id, or
	// common.ErrNotFound.
	GetByID(ctx context.Context, localID int64, ownerID string) (*models.FridgeItem, error)

	// List returns the owner's items ordered by category then name.
	// An empty category means all categories.
	List(ctx context.Context, ownerID, category string) ([]*models.FridgeItem, error)

	// Update overwrites quantity/unit/expiry of an existing item.
	// Nil fields are left unchanged.
	Update(ctx context.Context, localID int64, ownerID string, quantity *float64, unit *string, expiredAt *time.Time) (*models.FridgeItem, error)

	// DeleteByID removes the owner's item, returning the removed row or
	// common.ErrNotFound.
	DeleteByID(ctx context.Context, localID int64, ownerID string) (*models.FridgeItem, error)

	// BindRemoteID records the remote identifier for the row matching the
	// natural key, if that row still lacks one.
	BindRemoteID(ctx context.Context, ownerID, ingredientName, category, remoteID string) error

	// BulkUpsert fills the cache from remote documents. It only adds or
	// overwrites rows, never deletes.
	BulkUpsert(ctx context.Context, items []*models.FridgeItem) error
}
