package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
)

// Applier turns one outbox entry into an idempotent mutation of the
// remote store. It returns the remote document id when the mutation
// produced or touched one; the id is bound back into the local cache row
// when that row still lacks it, closing the identifier-mapping loop.
//
// Applying the same entry twice must converge on the same remote state:
// creates upsert by natural key, updates upsert by id or key, and deletes
// succeed on absent documents.
type Applier interface {
	Apply(ctx context.Context, entry *models.OutboxEntry) (remoteID string, err error)
}

// Registry maps entity kinds to their appliers.
type Registry map[models.Kind]Applier

// NewRegistry wires the standard appliers over the given local database
// and remote store.
func NewRegistry(db *sql.DB, store remote.Store) Registry {
	return Registry{
		models.KindFridgeItem:  &fridgeApplier{db: db, store: store},
		models.KindFavorite:    &favoriteApplier{db: db, store: store},
		models.KindChatHistory: &chatApplier{db: db, store: store},
	}
}

func decodePayload(entry *models.OutboxEntry, v any) error {
	if len(entry.Payload) == 0 {
		return fmt.Errorf("%w: entry %d has no payload", common.ErrBadPayload, entry.ID)
	}
	if err := json.Unmarshal(entry.Payload, v); err != nil {
		return fmt.Errorf("%w: entry %d: %w", common.ErrBadPayload, entry.ID, err)
	}
	return nil
}
