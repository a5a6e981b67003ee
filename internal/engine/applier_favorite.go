package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/favorites"
)

type favoriteApplier struct {
	db    *sql.DB
	store remote.Store
}

func (a *favoriteApplier) Apply(ctx context.Context, entry *models.OutboxEntry) (string, error) {
	var fav models.Favorite
	if err := decodePayload(entry, &fav); err != nil {
		return "", err
	}

	switch entry.Action {
	case models.ActionCreate:
		id, err := a.store.UpsertByNaturalKey(ctx, models.KindFavorite, fav.NaturalKey(), entry.OwnerID, entry.Payload)
		if err != nil {
			return "", err
		}
		if entry.RemoteID == "" {
			repo := favorites.NewSQLiteRepository(a.db)
			if err := repo.BindRemoteID(ctx, fav.OwnerID, fav.RecipeRemoteID, id); err != nil {
				return "", err
			}
		}
		return id, nil

	case models.ActionDelete:
		if entry.RemoteID != "" {
			return entry.RemoteID, a.store.DeleteByID(ctx, models.KindFavorite, entry.RemoteID)
		}
		return "", a.store.DeleteByNaturalKey(ctx, models.KindFavorite, fav.NaturalKey())

	default:
		return "", fmt.Errorf("unknown action %q for entry %d", entry.Action, entry.ID)
	}
}
