package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/catalog"
	"github.com/smartcook/syncengine/internal/repositories/chats"
	"github.com/smartcook/syncengine/internal/repositories/favorites"
	"github.com/smartcook/syncengine/internal/repositories/fridge"
)

// Warmer pulls remote documents into the local cache so reads keep working
// after connectivity drops. Warming only adds or overwrites rows; a row
// missing from a remote page is left alone, because absence from a page is
// not evidence of deletion.
type Warmer struct {
	db       *sql.DB
	store    remote.Store
	logger   logging.Logger
	pageSize int
}

// NewWarmer creates a warmer. pageSize bounds catalog pulls per cycle.
func NewWarmer(db *sql.DB, store remote.Store, pageSize int, logger logging.Logger) *Warmer {
	return &Warmer{db: db, store: store, logger: logger, pageSize: pageSize}
}

// WarmCatalog refreshes the shared recipe and ingredient caches.
func (w *Warmer) WarmCatalog(ctx context.Context) error {
	repo := catalog.NewSQLiteRepository(w.db)

	docs, err := w.store.FindMany(ctx, models.KindRecipe, "", w.pageSize)
	if err != nil {
		return fmt.Errorf("pull recipes: %w", err)
	}
	recipes := make([]*models.Recipe, 0, len(docs))
	for _, d := range docs {
		var r models.Recipe
		if err := json.Unmarshal(d.Doc, &r); err != nil {
			w.logger.Warn(ctx, "skipping malformed recipe document", "id", d.ID, "error", err)
			continue
		}
		r.RemoteID = d.ID
		r.Doc = d.Doc
		r.UpdatedAt = d.UpdatedAt
		recipes = append(recipes, &r)
	}
	if err := repo.BulkUpsertRecipes(ctx, recipes); err != nil {
		return fmt.Errorf("cache recipes: %w", err)
	}

	docs, err = w.store.FindMany(ctx, models.KindIngredient, "", w.pageSize)
	if err != nil {
		return fmt.Errorf("pull ingredients: %w", err)
	}
	ingredients := make([]*models.Ingredient, 0, len(docs))
	for _, d := range docs {
		var ing models.Ingredient
		if err := json.Unmarshal(d.Doc, &ing); err != nil {
			w.logger.Warn(ctx, "skipping malformed ingredient document", "id", d.ID, "error", err)
			continue
		}
		ing.RemoteID = d.ID
		ing.UpdatedAt = d.UpdatedAt
		ingredients = append(ingredients, &ing)
	}
	if err := repo.BulkUpsertIngredients(ctx, ingredients); err != nil {
		return fmt.Errorf("cache ingredients: %w", err)
	}

	w.logger.Info(ctx, "catalog warmed", "recipes", len(recipes), "ingredients", len(ingredients))
	return nil
}

// WarmOwner refreshes the owner's fridge, favorites and chat transcript
// from the remote store.
func (w *Warmer) WarmOwner(ctx context.Context, ownerID string) error {
	docs, err := w.store.FindMany(ctx, models.KindFridgeItem, ownerID, 0)
	if err != nil {
		return fmt.Errorf("pull fridge: %w", err)
	}
	items := make([]*models.FridgeItem, 0, len(docs))
	for _, d := range docs {
		var item models.FridgeItem
		if err := json.Unmarshal(d.Doc, &item); err != nil {
			w.logger.Warn(ctx, "skipping malformed fridge document", "id", d.ID, "error", err)
			continue
		}
		item.RemoteID = d.ID
		items = append(items, &item)
	}
	if err := fridge.NewSQLiteRepository(w.db).BulkUpsert(ctx, items); err != nil {
		return fmt.Errorf("cache fridge: %w", err)
	}

	docs, err = w.store.FindMany(ctx, models.KindFavorite, ownerID, 0)
	if err != nil {
		return fmt.Errorf("pull favorites: %w", err)
	}
	favs := make([]*models.Favorite, 0, len(docs))
	for _, d := range docs {
		var fav models.Favorite
		if err := json.Unmarshal(d.Doc, &fav); err != nil {
			w.logger.Warn(ctx, "skipping malformed favorite document", "id", d.ID, "error", err)
			continue
		}
		fav.RemoteID = d.ID
		favs = append(favs, &fav)
	}
	if err := favorites.NewSQLiteRepository(w.db).BulkUpsert(ctx, favs); err != nil {
		return fmt.Errorf("cache favorites: %w", err)
	}

	doc, err := w.store.GetByNaturalKey(ctx, models.KindChatHistory, ownerID)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		// no transcript yet
	case err != nil:
		return fmt.Errorf("pull chat: %w", err)
	default:
		var h models.ChatHistory
		if err := json.Unmarshal(doc.Doc, &h); err != nil {
			w.logger.Warn(ctx, "skipping malformed chat document", "id", doc.ID, "error", err)
			break
		}
		h.RemoteID = doc.ID
		h.OwnerID = ownerID
		if err := chats.NewSQLiteRepository(w.db).Upsert(ctx, &h); err != nil {
			return fmt.Errorf("cache chat: %w", err)
		}
	}

	w.logger.Info(ctx, "owner data warmed", "owner", ownerID, "fridge", len(items), "favorites", len(favs))
	return nil
}
