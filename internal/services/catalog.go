package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/engine"
	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/catalog"
)

// CatalogService serves the shared recipe and ingredient catalog from the
// local cache. The catalog is read-only on the client; writes to it happen
// upstream and arrive through warming.
type CatalogService struct {
	db     *sql.DB
	store  remote.Store
	conn   Connectivity
	warmer *engine.Warmer
	logger logging.Logger
}

func NewCatalogService(db *sql.DB, store remote.Store, conn Connectivity, warmer *engine.Warmer, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, store: store, conn: conn, warmer: warmer, logger: logger}
}

// Recipes lists cached recipes matching the filter. An empty cache
// triggers one warm cycle when online before retrying the query.
func (s *CatalogService) Recipes(ctx context.Context, filter catalog.RecipeFilter) ([]*models.Recipe, error) {
	repo := catalog.NewSQLiteRepository(s.db)

	recipes, err := repo.Recipes(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(recipes) > 0 || !s.conn.IsUp() {
		return recipes, nil
	}

	if err := s.warmer.WarmCatalog(ctx); err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			s.conn.MarkDown()
		}
		return recipes, nil
	}
	return repo.Recipes(ctx, filter)
}

// RecipeByID returns one recipe, falling back to a remote lookup on a
// cache miss when online.
func (s *CatalogService) RecipeByID(ctx context.Context, remoteID string) (*models.Recipe, error) {
	repo := catalog.NewSQLiteRepository(s.db)

	recipe, err := repo.RecipeByRemoteID(ctx, remoteID)
	if err == nil {
		return recipe, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if !s.conn.IsUp() {
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

// SearchRecipes matches the keyword against cached recipe text.
func (s *CatalogService) SearchRecipes(ctx context.Context, keyword string, limit int) ([]*models.Recipe, error) {
	return catalog.NewSQLiteRepository(s.db).SearchRecipes(ctx, keyword, limit)
}

// CountRecipes returns the number of cached recipes matching the filter.
func (s *CatalogService) CountRecipes(ctx context.Context, filter catalog.RecipeFilter) (int, error) {
	return catalog.NewSQLiteRepository(s.db).CountRecipes(ctx, filter)
}

// Ingredients lists cached catalog ingredients, warming once on an empty
// cache when online.
func (s *CatalogService) Ingredients(ctx context.Context, category string) ([]*models.Ingredient, error) {
	repo := catalog.NewSQLiteRepository(s.db)

	ingredients, err := repo.Ingredients(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(ingredients) > 0 || !s.conn.IsUp() {
		return ingredients, nil
	}

	if err := s.warmer.WarmCatalog(ctx); err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			s.conn.MarkDown()
		}
		return ingredients, nil
	}
	return repo.Ingredients(ctx, category)
}
