// Package outbox persists the append-only ledger of local mutations not
// yet confirmed applied remotely.
package outbox

import (
	"context"

	"github.com/smartcook/syncengine/internal/models"
)

// Repository is the outbox ledger. Entries are immutable once appended
// except for the sync bookkeeping columns; draining never depends on
// purging having run.
type Repository interface {
	// Append records one entry. It MUST be called on the same transaction
	// as the local mutation the entry describes.
	Append(ctx context.Context, e *models.OutboxEntry) error

	// ListUnsynced returns all live (not synced, not dead) entries in
	// FIFO order of creation.
	ListUnsynced(ctx context.Context) ([]*models.OutboxEntry, error)

	// MarkSynced flips the given entries to synced. The transition happens
	// at most once per entry and is never reverted.
	MarkSynced(ctx context.Context, ids []int64) error

	// MarkFailed increments the attempt counter of the given entries.
	MarkFailed(ctx context.Context, ids []int64) error

	// MarkDead retires entries whose attempt count reached the configured
	// ceiling. Dead entries stay in the table for operator inspection.
	MarkDead(ctx context.Context, ids []int64) error

	// PurgeSynced deletes entries already marked synced.
	PurgeSynced(ctx context.Context) (int64, error)

	// CountUnsynced returns the number of live entries awaiting drain.
	CountUnsynced(ctx context.Context) (int, error)
}
