package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/catalog"
	"github.com/smartcook/syncengine/internal/repositories/favorites"
)

// FavoriteService manages a user's favorite recipes. Each favorite keeps a
// snapshot of its recipe document so it renders offline.
type FavoriteService struct {
	db     *sql.DB
	store  remote.Store
	conn   Connectivity
	logger logging.Logger
}

func NewFavoriteService(db *sql.DB, store remote.Store, conn Connectivity, logger logging.Logger) *FavoriteService {
	return &FavoriteService{db: db, store: store, conn: conn, logger: logger}
}

// Add favorites a recipe. Already-favorited is not an error; existed
// reports it and nothing is queued. The recipe snapshot comes from the
// local catalog cache, falling back to one remote lookup when online; a
// favorite without a snapshot is still accepted.
func (s *FavoriteService) Add(ctx context.Context, ownerID, recipeRemoteID string) (*models.Favorite, bool, error) {
	fav := &models.Favorite{
		OwnerID:        ownerID,
		RecipeRemoteID: recipeRemoteID,
		CreatedAt:      time.Now().UTC(),
	}
	if recipe, err := s.lookupRecipe(ctx, recipeRemoteID); err == nil {
		fav.Recipe = recipe.Doc
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	var stored *models.Favorite
	var existed bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		stored, existed, err = favorites.NewSQLiteRepository(tx).Add(ctx, fav)
		if err != nil || existed {
			return err
		}
		return enqueue(ctx, tx, models.ActionCreate, models.KindFavorite, stored.RemoteID, ownerID, stored)
	})
	if err != nil {
		return nil, false, err
	}
	return stored, existed, nil
}

// Remove unfavorites a recipe. The outbox payload carries the removed row
// so the delete replays by natural key when no remote id was bound yet.
func (s *FavoriteService) Remove(ctx context.Context, ownerID, recipeRemoteID string) (*models.Favorite, error) {
	var removed *models.Favorite
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		removed, err = favorites.NewSQLiteRepository(tx).DeleteByNaturalKey(ctx, ownerID, recipeRemoteID)
		if err != nil {
			return err
		}
		return enqueue(ctx, tx, models.ActionDelete, models.KindFavorite, removed.RemoteID, ownerID, removed)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// List returns the owner's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Favorite, error) {
	return favorites.NewSQLiteRepository(s.db).List(ctx, ownerID, limit, offset)
}

// Count returns the owner's favorite count.
func (s *FavoriteService) Count(ctx context.Context, ownerID string) (int, error) {
	return favorites.NewSQLiteRepository(s.db).Count(ctx, ownerID)
}

func (s *FavoriteService) lookupRecipe(ctx context.Context, remoteID string) (*models.Recipe, error) {
	repo := catalog.NewSQLiteRepository(s.db)

	recipe, err := repo.RecipeByRemoteID(ctx, remoteID)
	if err == nil {
		return recipe, nil
	}
	if !errors.Is(err, common.ErrNotFound) || !s.conn.IsUp() {
		return nil, common.ErrNotFound
	}

	doc, err := s.store.GetByID(ctx, models.KindRecipe, remoteID)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			s.conn.MarkDown()
		}
		return nil, common.ErrNotFound
	}

	recipe = &models.Recipe{}
	if err := json.Unmarshal(doc.Doc, recipe); err != nil {
		return nil, common.ErrNotFound
	}
	recipe.RemoteID = doc.ID
	recipe.Doc = doc.Doc
	recipe.UpdatedAt = doc.UpdatedAt
	if err := repo.BulkUpsertRecipes(ctx, []*models.Recipe{recipe}); err != nil {
		s.logger.Warn(ctx, "failed to cache recipe", "id", remoteID, "error", err)
	}
	return recipe, nil
}
