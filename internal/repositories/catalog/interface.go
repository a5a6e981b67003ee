// Package catalog persists the local cache of shared catalog data: recipes
// and ingredients pulled from the remote store. The cache is enrich-only;
// nothing here deletes rows.
package catalog

import (
	"context"

	"github.com/smartcook/syncengine/internal/models"
)

// RecipeFilter narrows recipe listings. Category and meal type match the
// promoted document fields; every tag given must appear in the document.
type RecipeFilter struct {
	Category string
	MealType string
	Tags     []string
	Limit    int
	Offset   int
}

// Repository provides read/fill access to the shared catalog cache.
type Repository interface {
	BulkUpsertRecipes(ctx context.Context, recipes []*models.Recipe) error
	Recipes(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error)
	RecipeByRemoteID(ctx context.Context, remoteID string) (*models.Recipe, error)
	SearchRecipes(ctx context.Context, keyword string, limit int) ([]*models.Recipe, error)
	CountRecipes(ctx context.Context, filter RecipeFilter) (int, error)

	BulkUpsertIngredients(ctx context.Context, ingredients []*models.Ingredient) error
	Ingredients(ctx context.Context, category string) ([]*models.Ingredient, error)
}
