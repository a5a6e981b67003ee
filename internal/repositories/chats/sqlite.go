package chats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, ownerID string) (*models.ChatHistory, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, remote_id, owner_id, messages_json, created_at, updated_at
		 FROM chat_histories WHERE owner_id = ?`, ownerID)

	var (
		h                            models.ChatHistory
		messages, createdAt, updated string
	)
	err := row.Scan(&h.LocalID, &h.RemoteID, &h.OwnerID, &messages, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat history: %w", err)
	}

	if err := json.Unmarshal([]byte(messages), &h.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		h.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		h.UpdatedAt = t
	}
	return &h, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, ownerID string, messages []models.Message) (*models.ChatHistory, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `INSERT INTO chat_histories (owner_id, messages_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			messages_json = excluded.messages_json,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, ownerID, string(data), now, now); err != nil {
		return nil, fmt.Errorf("failed to save chat history: %w", err)
	}

	return r.Get(ctx, ownerID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_histories WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BindRemoteID(ctx context.Context, ownerID, remoteID string) error {
	query := `UPDATE chat_histories SET remote_id = ? WHERE owner_id = ? AND remote_id = ''`
	if _, err := r.db.ExecContext(ctx, query, remoteID, ownerID); err != nil {
		return fmt.Errorf("failed to bind remote id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, h *models.ChatHistory) error {
	data, err := json.Marshal(h.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := `INSERT INTO chat_histories (remote_id, owner_id, messages_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			remote_id = excluded.remote_id,
			messages_json = excluded.messages_json,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		h.RemoteID, h.OwnerID, string(data),
		createdAt.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to upsert chat history: %w", err)
	}
	return nil
}
