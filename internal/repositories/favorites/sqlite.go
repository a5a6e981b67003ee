package favorites

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

const columns = `id, remote_id, owner_id, recipe_remote_id, recipe_json, created_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, fav *models.Favorite) (*models.Favorite, bool, error) {
	existing, err := r.getByNaturalKey(ctx, fav.OwnerID, fav.RecipeRemoteID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	createdAt := fav.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := `INSERT INTO favorites (remote_id, owner_id, recipe_remote_id, recipe_json, created_at)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		fav.RemoteID, fav.OwnerID, fav.RecipeRemoteID,
		rawOrNil(fav.Recipe), createdAt.Format(time.RFC3339))
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert favorite: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM favorites WHERE id = ?`, id)
	created, err := scanFavorite(row)
	return created, false, err
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM favorites WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select favorites: %w", err)
	}
	defer rows.Close()

	var result []*models.Favorite
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) DeleteByNaturalKey(ctx context.Context, ownerID, recipeRemoteID string) (*models.Favorite, error) {
	fav, err := r.getByNaturalKey(ctx, ownerID, recipeRemoteID)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, fav.LocalID); err != nil {
		return nil, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return fav, nil
}

func (r *SQLiteRepository) BindRemoteID(ctx context.Context, ownerID, recipeRemoteID, remoteID string) error {
	query := `UPDATE favorites SET remote_id = ?
		WHERE owner_id = ? AND recipe_remote_id = ? AND remote_id = ''`
	if _, err := r.db.ExecContext(ctx, query, remoteID, ownerID, recipeRemoteID); err != nil {
		return fmt.Errorf("failed to bind remote id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, favs []*models.Favorite) error {
	query := `INSERT INTO favorites (remote_id, owner_id, recipe_remote_id, recipe_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, recipe_remote_id) DO UPDATE SET
			remote_id = excluded.remote_id,
			recipe_json = excluded.recipe_json`

	for _, fav := range favs {
		createdAt := fav.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := r.db.ExecContext(ctx, query,
			fav.RemoteID, fav.OwnerID, fav.RecipeRemoteID,
			rawOrNil(fav.Recipe), createdAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to bulk upsert favorite %q: %w", fav.RecipeRemoteID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) getByNaturalKey(ctx context.Context, ownerID, recipeRemoteID string) (*models.Favorite, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM favorites WHERE owner_id = ? AND recipe_remote_id = ?`,
		ownerID, recipeRemoteID)
	return scanFavorite(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row rowScanner) (*models.Favorite, error) {
	var (
		fav       models.Favorite
		recipe    sql.NullString
		createdAt string
	)
	err := row.Scan(&fav.LocalID, &fav.RemoteID, &fav.OwnerID, &fav.RecipeRemoteID, &recipe, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan favorite: %w", err)
	}
	if recipe.Valid {
		fav.Recipe = []byte(recipe.String)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		fav.CreatedAt = t
	}
	return &fav, nil
}

func rawOrNil(raw []byte) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
