// Package favorites persists the local working set of a user's favorite
// recipes, each carrying a denormalized snapshot of its recipe document.
package favorites

import (
	"context"

	"github.com/smartcook/syncengine/internal/models"
)

// Repository provides owner-scoped access to favorites. The natural key
// is (owner, recipe remote id).
type Repository interface {
	// Add stores the favorite unless one with the same natural key already
	// exists; existed reports the duplicate case.
	Add(ctx context.Context, fav *models.Favorite) (stored *models.Favorite, existed bool, err error)

	// List returns the owner's favorites, newest first.
	List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Favorite, error)

	// Count returns the owner's favorite count.
	Count(ctx context.Context, ownerID string) (int, error)

	// DeleteByNaturalKey removes the favorite for the given recipe,
	// returning the removed row or common.ErrNotFound.
	DeleteByNaturalKey(ctx context.Context, ownerID, recipeRemoteID string) (*models.Favorite, error)

	// BindRemoteID records the remote identifier for the row matching the
	// natural key, if that row still lacks one.
	BindRemoteID(ctx context.Context, ownerID, recipeRemoteID, remoteID string) error

	// BulkUpsert fills the cache from remote documents; add/overwrite only.
	BulkUpsert(ctx context.Context, favs []*models.Favorite) error
}
