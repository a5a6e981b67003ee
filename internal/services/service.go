// Package services is the read/write facade of the application. Writes go
// to the local store and the outbox in one transaction; reads come from
// the local store with a single remote fallback on a cache miss.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/engine"
	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/outbox"
)

// Connectivity reports and records remote reachability. Satisfied by
// engine.Monitor.
type Connectivity interface {
	IsUp() bool
	MarkDown()
}

// Services bundles the per-entity facades over one local database and one
// remote store.
type Services struct {
	Fridge    *FridgeService
	Favorites *FavoriteService
	Chat      *ChatService
	Catalog   *CatalogService
	Sync      *SyncService
}

// New wires the facades over the engine's stores.
func New(db *sql.DB, store remote.Store, eng *engine.Engine, logger logging.Logger) *Services {
	return &Services{
		Fridge:    NewFridgeService(db, logger),
		Favorites: NewFavoriteService(db, store, eng.Monitor, logger),
		Chat:      NewChatService(db, store, eng.Monitor, logger),
		Catalog:   NewCatalogService(db, store, eng.Monitor, eng.Warmer, logger),
		Sync:      NewSyncService(eng, logger),
	}
}

// enqueue appends an outbox entry on the caller's transaction. payload is
// the JSON snapshot the applier replays against the remote store.
func enqueue(ctx context.Context, tx dbx.DBTX, action models.Action, kind models.Kind, remoteID, ownerID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	return outbox.NewSQLiteRepository(tx).Append(ctx, &models.OutboxEntry{
		Action:   action,
		Kind:     kind,
		RemoteID: remoteID,
		OwnerID:  ownerID,
		Payload:  data,
	})
}
