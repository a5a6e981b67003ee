package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/chats"
)

// ChatService manages the single chat transcript each owner has.
type ChatService struct {
	db     *sql.DB
	store  remote.Store
	conn   Connectivity
	logger logging.Logger
}

func NewChatService(db *sql.DB, store remote.Store, conn Connectivity, logger logging.Logger) *ChatService {
	return &ChatService{db: db, store: store, conn: conn, logger: logger}
}

// Get returns the owner's transcript. A local miss triggers one remote
// lookup when online; offline misses return common.ErrNotFound without
// blocking.
func (s *ChatService) Get(ctx context.Context, ownerID string) (*models.ChatHistory, error) {
	repo := chats.NewSQLiteRepository(s.db)

	h, err := repo.Get(ctx, ownerID)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if !s.conn.IsUp() {
		return nil, common.ErrNotFound
	}

	doc, err := s.store.GetByNaturalKey(ctx, models.KindChatHistory, ownerID)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			s.conn.MarkDown()
		}
		return nil, common.ErrNotFound
	}

	h = &models.ChatHistory{}
	if err := json.Unmarshal(doc.Doc, h); err != nil {
		return nil, common.ErrNotFound
	}
	h.RemoteID = doc.ID
	h.OwnerID = ownerID
	if err := repo.Upsert(ctx, h); err != nil {
		s.logger.Warn(ctx, "failed to cache chat transcript", "owner", ownerID, "error", err)
	}
	return h, nil
}

// Append adds messages to the owner's transcript, creating it on first
// use, and queues the full transcript for sync.
func (s *ChatService) Append(ctx context.Context, ownerID string, messages ...models.Message) (*models.ChatHistory, error) {
	if len(messages) == 0 {
		return s.Get(ctx, ownerID)
	}

	var saved *models.ChatHistory
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := chats.NewSQLiteRepository(tx)

		existing, err := repo.Get(ctx, ownerID)
		action := models.ActionUpdate
		switch {
		case errors.Is(err, common.ErrNotFound):
			existing = &models.ChatHistory{OwnerID: ownerID}
			action = models.ActionCreate
		case err != nil:
			return err
		}

		saved, err = repo.Save(ctx, ownerID, append(existing.Messages, messages...))
		if err != nil {
			return err
		}
		saved.RemoteID = existing.RemoteID
		return enqueue(ctx, tx, action, models.KindChatHistory, saved.RemoteID, ownerID, saved)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Clear removes the owner's transcript locally and queues the remote
// delete. A missing transcript is not an error.
func (s *ChatService) Clear(ctx context.Context, ownerID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := chats.NewSQLiteRepository(tx)

		var remoteID string
		existing, err := repo.Get(ctx, ownerID)
		switch {
		case err == nil:
			remoteID = existing.RemoteID
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		if err := repo.Delete(ctx, ownerID); err != nil {
			return err
		}
		return enqueue(ctx, tx, models.ActionDelete, models.KindChatHistory, remoteID, ownerID,
			&models.ChatHistory{OwnerID: ownerID})
	})
}
