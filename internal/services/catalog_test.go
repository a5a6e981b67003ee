package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/repositories/catalog"
)

func TestCatalogRecipes_EmptyCacheWarmsOnce(t *testing.T) {
	svc, _, mem, eng := setupServices(t)
	ctx := context.Background()
	eng.Monitor.Probe(ctx)

	_, err := mem.UpsertByNaturalKey(ctx, models.KindRecipe, "soto", "",
		[]byte(`{"title":"Soto Ayam","category":"protein"}`))
	require.NoError(t, err)

	got, err := svc.Catalog.Recipes(ctx, catalog.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Soto Ayam", got[0].Title)

	// warmed rows survive going offline
	mem.SetOnline(false)
	got, err = svc.Catalog.Recipes(ctx, catalog.RecipeFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCatalogRecipes_OfflineEmptyCacheReturnsEmpty(t *testing.T) {
	svc, _, mem, _ := setupServices(t)
	mem.SetOnline(false)

	got, err := svc.Catalog.Recipes(context.Background(), catalog.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogRecipeByID_RemoteFallback(t *testing.T) {
	svc, _, mem, eng := setupServices(t)
	ctx := context.Background()
	eng.Monitor.Probe(ctx)

	id, err := mem.UpsertByNaturalKey(ctx, models.KindRecipe, "rendang", "",
		[]byte(`{"title":"Rendang","category":"protein"}`))
	require.NoError(t, err)

	got, err := svc.Catalog.RecipeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rendang", got.Title)

	// cached now; offline read still works
	mem.SetOnline(false)
	got, err = svc.Catalog.RecipeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rendang", got.Title)
}

func TestCatalogRecipeByID_OfflineMiss(t *testing.T) {
	svc, _, mem, _ := setupServices(t)
	mem.SetOnline(false)

	_, err := svc.Catalog.RecipeByID(context.Background(), "rcp-404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCatalogIngredients_WarmOnEmpty(t *testing.T) {
	svc, _, mem, eng := setupServices(t)
	ctx := context.Background()
	eng.Monitor.Probe(ctx)

	_, err := mem.UpsertByNaturalKey(ctx, models.KindIngredient, "ayam", "",
		[]byte(`{"name":"ayam","category":"protein"}`))
	require.NoError(t, err)

	got, err := svc.Catalog.Ingredients(ctx, models.CategoryProtein)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ayam", got[0].Name)
}
