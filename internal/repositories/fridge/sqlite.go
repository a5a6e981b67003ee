package fridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/models"
)

const columns = `id, remote_id, owner_id, ingredient_name, category, quantity, unit, expired_at, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertByNaturalKey(ctx context.Context, item *models.FridgeItem) (*models.FridgeItem, bool, error) {
	existing, err := r.getByNaturalKey(ctx, item.OwnerID, item.IngredientName, item.Category)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()

	if existing != nil {
		unit := existing.Unit
		if item.Unit != "" {
			unit = item.Unit
		}
		query := `UPDATE fridge_items SET quantity = ?, unit = ?, updated_at = ? WHERE id = ?`
		if _, err := r.db.ExecContext(ctx, query,
			existing.Quantity+item.Quantity, unit, now.Format(time.RFC3339), existing.LocalID); err != nil {
			return nil, false, fmt.Errorf("failed to merge fridge item: %w", err)
		}
		merged, err := r.getByLocalID(ctx, existing.LocalID)
		return merged, true, err
	}

	unit := item.Unit
	if unit == "" {
		unit = "gram"
	}
	query := `INSERT INTO fridge_items (remote_id, owner_id, ingredient_name, category, quantity, unit, expired_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		item.RemoteID, item.OwnerID, item.IngredientName, item.Category,
		item.Quantity, unit, timeToNull(item.ExpiredAt),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert fridge item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	created, err := r.getByLocalID(ctx, id)
	return created, false, err
}

func (r *SQLiteRepository) GetByID(ctx context.Context, localID int64, ownerID string) (*models.FridgeItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM fridge_items WHERE id = ? AND owner_id = ?`, localID, ownerID)
	return scanItem(row)
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID, category string) ([]*models.FridgeItem, error) {
	query := `SELECT ` + columns + ` FROM fridge_items WHERE owner_id = ?`
	args := []any{ownerID}
	if category != "" {
		query += ` AND category = ? ORDER BY ingredient_name`
		args = append(args, category)
	} else {
		query += ` ORDER BY category, ingredient_name`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select fridge items: %w", err)
	}
	defer rows.Close()

	var result []*models.FridgeItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, localID int64, ownerID string, quantity *float64, unit *string, expiredAt *time.Time) (*models.FridgeItem, error) {
	item, err := r.GetByID(ctx, localID, ownerID)
	if err != nil {
		return nil, err
	}

	if quantity != nil {
		item.Quantity = *quantity
	}
	if unit != nil {
		item.Unit = *unit
	}
	if expiredAt != nil {
		item.ExpiredAt = expiredAt
	}

	query := `UPDATE fridge_items SET quantity = ?, unit = ?, expired_at = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		item.Quantity, item.Unit, timeToNull(item.ExpiredAt),
		time.Now().UTC().Format(time.RFC3339), localID); err != nil {
		return nil, fmt.Errorf("failed to update fridge item: %w", err)
	}

	return r.getByLocalID(ctx, localID)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, localID int64, ownerID string) (*models.FridgeItem, error) {
	item, err := r.GetByID(ctx, localID, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fridge_items WHERE id = ?`, localID); err != nil {
		return nil, fmt.Errorf("failed to delete fridge item: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) BindRemoteID(ctx context.Context, ownerID, ingredientName, category, remoteID string) error {
	query := `UPDATE fridge_items SET remote_id = ?
		WHERE owner_id = ? AND LOWER(ingredient_name) = LOWER(?) AND category = ? AND remote_id = ''`
	if _, err := r.db.ExecContext(ctx, query, remoteID, ownerID, ingredientName, category); err != nil {
		return fmt.Errorf("failed to bind remote id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, items []*models.FridgeItem) error {
	query := `INSERT INTO fridge_items (remote_id, owner_id, ingredient_name, category, quantity, unit, expired_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, ingredient_name, category) DO UPDATE SET
			remote_id = excluded.remote_id,
			quantity = excluded.quantity,
			unit = excluded.unit,
			expired_at = excluded.expired_at,
			updated_at = excluded.updated_at`

	now := time.Now().UTC()
	for _, item := range items {
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		unit := item.Unit
		if unit == "" {
			unit = "gram"
		}
		if _, err := r.db.ExecContext(ctx, query,
			item.RemoteID, item.OwnerID, item.IngredientName, item.Category,
			item.Quantity, unit, timeToNull(item.ExpiredAt),
			createdAt.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to bulk upsert fridge item %q: %w", item.IngredientName, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) getByNaturalKey(ctx context.Context, ownerID, name, category string) (*models.FridgeItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM fridge_items
		 WHERE owner_id = ? AND LOWER(ingredient_name) = LOWER(?) AND category = ?`,
		ownerID, name, category)
	return scanItem(row)
}

func (r *SQLiteRepository) getByLocalID(ctx context.Context, localID int64) (*models.FridgeItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM fridge_items WHERE id = ?`, localID)
	return scanItem(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.FridgeItem, error) {
	var (
		item                 models.FridgeItem
		expired              sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&item.LocalID, &item.RemoteID, &item.OwnerID, &item.IngredientName,
		&item.Category, &item.Quantity, &item.Unit, &expired, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fridge item: %w", err)
	}

	item.ExpiredAt = nullToTime(expired)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		item.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		item.UpdatedAt = t
	}
	return &item, nil
}

func timeToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
