package outbox

import (
	"context"
	"fmt"
	"strings"
	"time"

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

func (r *SQLiteRepository) Append(ctx context.Context, e *models.OutboxEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO sync_queue (action, entity_kind, remote_id, owner_id, payload_json, synced, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`
	res, err := r.db.ExecContext(ctx, query,
		string(e.Action), string(e.Kind), e.RemoteID, e.OwnerID,
		payloadOrNil(e.Payload), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append outbox entry: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get outbox entry id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.OutboxEntry, error) {
	// ids are AUTOINCREMENT, so ordering by id alone gives append order.
	// created_at is a TEXT column and RFC3339Nano trims trailing zeros,
	// which breaks lexicographic ordering for whole-second timestamps.
	query := `SELECT id, action, entity_kind, remote_id, owner_id, payload_json, synced, attempts, dead, created_at
		FROM sync_queue WHERE synced = 0 AND dead = 0 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select outbox entries: %w", err)
	}
	defer rows.Close()

	var result []*models.OutboxEntry
	for rows.Next() {
		var (
			e                       models.OutboxEntry
			action, kind, createdAt string
			payload                 *string
			synced, dead            int
		)
		if err := rows.Scan(&e.ID, &action, &kind, &e.RemoteID, &e.OwnerID,
			&payload, &synced, &e.Attempts, &dead, &createdAt); err != nil {
			return nil, err
		}
		e.Action = models.Action(action)
		e.Kind = models.Kind(kind)
		e.Synced = synced != 0
		e.Dead = dead != 0
		if payload != nil {
			e.Payload = []byte(*payload)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []int64) error {
	return r.markColumn(ctx, "synced", ids)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`UPDATE sync_queue SET attempts = attempts + 1 WHERE id IN (%s)`, placeholders(len(ids)))
	if _, err := r.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return fmt.Errorf("failed to mark entries failed: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkDead(ctx context.Context, ids []int64) error {
	return r.markColumn(ctx, "dead", ids)
}

func (r *SQLiteRepository) markColumn(ctx context.Context, column string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	// column is a compile-time constant ("synced" or "dead"), never user input.
	query := fmt.Sprintf(`UPDATE sync_queue SET %s = 1 WHERE id IN (%s)`, column, placeholders(len(ids)))
	if _, err := r.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return fmt.Errorf("failed to mark entries %s: %w", column, err)
	}
	return nil
}

func (r *SQLiteRepository) PurgeSynced(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE synced = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge synced entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) CountUnsynced(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE synced = 0 AND dead = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced entries: %w", err)
	}
	return count, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func payloadOrNil(p []byte) any {
	if p == nil {
		return nil
	}
	return string(p)
}
