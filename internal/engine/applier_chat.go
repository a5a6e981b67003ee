package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/chats"
)

type chatApplier struct {
	db    *sql.DB
	store remote.Store
}

func (a *chatApplier) Apply(ctx context.Context, entry *models.OutboxEntry) (string, error) {
	switch entry.Action {
	case models.ActionCreate, models.ActionUpdate:
		var h models.ChatHistory
		if err := decodePayload(entry, &h); err != nil {
			return "", err
		}

		// One transcript per owner; the owner is the natural key.
		id, err := a.store.UpsertByNaturalKey(ctx, models.KindChatHistory, h.OwnerID, entry.OwnerID, entry.Payload)
		if err != nil {
			return "", err
		}
		if entry.RemoteID == "" {
			if err := chats.NewSQLiteRepository(a.db).BindRemoteID(ctx, h.OwnerID, id); err != nil {
				return "", err
			}
		}
		return id, nil

	case models.ActionDelete:
		if entry.RemoteID != "" {
			return entry.RemoteID, a.store.DeleteByID(ctx, models.KindChatHistory, entry.RemoteID)
		}
		return "", a.store.DeleteByNaturalKey(ctx, models.KindChatHistory, entry.OwnerID)

	default:
		return "", fmt.Errorf("unknown action %q for entry %d", entry.Action, entry.ID)
	}
}
