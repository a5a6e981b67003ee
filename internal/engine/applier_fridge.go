package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/fridge"
)

type fridgeApplier struct {
	db    *sql.DB
	store remote.Store
}

func (a *fridgeApplier) Apply(ctx context.Context, entry *models.OutboxEntry) (string, error) {
	switch entry.Action {
	case models.ActionCreate, models.ActionUpdate:
		var item models.FridgeItem
		if err := decodePayload(entry, &item); err != nil {
			return "", err
		}

		if entry.Action == models.ActionUpdate && entry.RemoteID != "" {
			if err := a.store.UpsertByID(ctx, models.KindFridgeItem, entry.RemoteID, entry.Payload); err != nil {
				return "", err
			}
			return entry.RemoteID, nil
		}

		id, err := a.store.UpsertByNaturalKey(ctx, models.KindFridgeItem, item.NaturalKey(), entry.OwnerID, entry.Payload)
		if err != nil {
			return "", err
		}
		if entry.RemoteID == "" {
			if err := a.bind(ctx, &item, id); err != nil {
				return "", err
			}
		}
		return id, nil

	case models.ActionDelete:
		if entry.RemoteID != "" {
			return entry.RemoteID, a.store.DeleteByID(ctx, models.KindFridgeItem, entry.RemoteID)
		}
		// The row may have been created offline and never synced; fall
		// back to the natural key carried in the snapshot.
		var item models.FridgeItem
		if err := decodePayload(entry, &item); err != nil {
			return "", err
		}
		return "", a.store.DeleteByNaturalKey(ctx, models.KindFridgeItem, item.NaturalKey())

	default:
		return "", fmt.Errorf("unknown action %q for entry %d", entry.Action, entry.ID)
	}
}

func (a *fridgeApplier) bind(ctx context.Context, item *models.FridgeItem, remoteID string) error {
	return fridge.NewSQLiteRepository(a.db).
		BindRemoteID(ctx, item.OwnerID, item.IngredientName, item.Category, remoteID)
}
