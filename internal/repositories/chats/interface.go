// Package chats persists chat transcripts, one per owner.
package chats

import (
	"context"

	"github.com/smartcook/syncengine/internal/models"
)

// Repository provides access to chat histories, keyed by owner.
type Repository interface {
	// Get returns the owner's transcript or common.ErrNotFound.
	Get(ctx context.Context, ownerID string) (*models.ChatHistory, error)

	// Save replaces the owner's message list, creating the transcript row
	// if it does not exist yet.
	Save(ctx context.Context, ownerID string, messages []models.Message) (*models.ChatHistory, error)

	// Delete removes the owner's transcript; absent is not an error.
	Delete(ctx context.Context, ownerID string) error

	// BindRemoteID records the remote identifier for the owner's row, if
	// it still lacks one.
	BindRemoteID(ctx context.Context, ownerID, remoteID string) error

	// Upsert fills the cache from a remote document; add/overwrite only.
	Upsert(ctx context.Context, h *models.ChatHistory) error
}
