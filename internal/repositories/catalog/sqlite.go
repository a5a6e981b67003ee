package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/dbx"
	"github.com/smartcook/syncengine/internal/models"
)

const recipeColumns = `id, remote_id, title, description, image_url, doc_json, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) BulkUpsertRecipes(ctx context.Context, recipes []*models.Recipe) error {
	query := `INSERT INTO cached_recipes (remote_id, title, description, image_url, doc_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (remote_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image_url = excluded.image_url,
			doc_json = excluded.doc_json,
			updated_at = excluded.updated_at`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, recipe := range recipes {
		if _, err := r.db.ExecContext(ctx, query,
			recipe.RemoteID, recipe.Title, recipe.Description, recipe.ImageURL,
			string(recipe.Doc), now); err != nil {
			return fmt.Errorf("failed to cache recipe %q: %w", recipe.Title, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Recipes(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error) {
	query, args := buildRecipeQuery(`SELECT `+recipeColumns+` FROM cached_recipes WHERE 1=1`, filter)

	query += ` ORDER BY updated_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipes: %w", err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

func (r *SQLiteRepository) RecipeByRemoteID(ctx context.Context, remoteID string) (*models.Recipe, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM cached_recipes WHERE remote_id = ?`, remoteID)
	return scanRecipe(row)
}

func (r *SQLiteRepository) SearchRecipes(ctx context.Context, keyword string, limit int) ([]*models.Recipe, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + keyword + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM cached_recipes
		 WHERE title LIKE ? OR description LIKE ? OR doc_json LIKE ?
		 ORDER BY updated_at DESC LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

func (r *SQLiteRepository) CountRecipes(ctx context.Context, filter RecipeFilter) (int, error) {
	query, args := buildRecipeQuery(`SELECT COUNT(*) FROM cached_recipes WHERE 1=1`, filter)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) BulkUpsertIngredients(ctx context.Context, ingredients []*models.Ingredient) error {
	query := `INSERT INTO cached_ingredients (remote_id, name, category, sub_category, unit, common_quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (remote_id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			sub_category = excluded.sub_category,
			unit = excluded.unit,
			common_quantity = excluded.common_quantity,
			updated_at = excluded.updated_at`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, ing := range ingredients {
		unit := ing.Unit
		if unit == "" {
			unit = "gram"
		}
		if _, err := r.db.ExecContext(ctx, query,
			ing.RemoteID, ing.Name, ing.Category, ing.SubCategory,
			unit, ing.CommonQuantity, now); err != nil {
			return fmt.Errorf("failed to cache ingredient %q: %w", ing.Name, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Ingredients(ctx context.Context, category string) ([]*models.Ingredient, error) {
	query := `SELECT id, remote_id, name, category, sub_category, unit, common_quantity, updated_at
		FROM cached_ingredients`
	var args []any
	if category != "" {
		query += ` WHERE category = ? ORDER BY name`
		args = append(args, category)
	} else {
		query += ` ORDER BY category, name`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ingredients: %w", err)
	}
	defer rows.Close()

	var result []*models.Ingredient
	for rows.Next() {
		var (
			ing       models.Ingredient
			updatedAt string
		)
		if err := rows.Scan(&ing.LocalID, &ing.RemoteID, &ing.Name, &ing.Category,
			&ing.SubCategory, &ing.Unit, &ing.CommonQuantity, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			ing.UpdatedAt = t
		}
		result = append(result, &ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// buildRecipeQuery appends filter conditions to base. Category matches the
// promoted document field; meal type and tags match inside the raw JSON,
// as the cache keeps the whole document.
func buildRecipeQuery(base string, filter RecipeFilter) (string, []any) {
	query := base
	var args []any

	if filter.Category != "" {
		query += ` AND json_extract(doc_json, '$.category') = ?`
		args = append(args, filter.Category)
	}
	if filter.MealType != "" {
		query += ` AND doc_json LIKE ?`
		args = append(args, `%"`+filter.MealType+`"%`)
	}
	for _, tag := range filter.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		query += ` AND doc_json LIKE ?`
		args = append(args, "%"+tag+"%")
	}
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var (
		recipe         models.Recipe
		doc, updatedAt string
	)
	err := row.Scan(&recipe.LocalID, &recipe.RemoteID, &recipe.Title,
		&recipe.Description, &recipe.ImageURL, &doc, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}
	recipe.Doc = []byte(doc)
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		recipe.UpdatedAt = t
	}
	return &recipe, nil
}

func scanRecipes(rows *sql.Rows) ([]*models.Recipe, error) {
	var result []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
