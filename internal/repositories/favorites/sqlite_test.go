package favorites

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/store"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAdd_DuplicateIsNoop(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	stored, existed, err := r.Add(ctx, &models.Favorite{
		OwnerID:        "u1",
		RecipeRemoteID: "rcp-1",
		Recipe:         []byte(`{"title":"Nasi Goreng"}`),
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.JSONEq(t, `{"title":"Nasi Goreng"}`, string(stored.Recipe))

	again, existed, err := r.Add(ctx, &models.Favorite{OwnerID: "u1", RecipeRemoteID: "rcp-1"})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, stored.LocalID, again.LocalID)

	count, err := r.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestList_NewestFirstWithPaging(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"rcp-1", "rcp-2", "rcp-3"} {
		_, _, err := r.Add(ctx, &models.Favorite{
			OwnerID:        "u1",
			RecipeRemoteID: id,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	got, err := r.List(ctx, "u1", 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rcp-3", got[0].RecipeRemoteID)
	assert.Equal(t, "rcp-2", got[1].RecipeRemoteID)

	got, err = r.List(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rcp-1", got[0].RecipeRemoteID)
}

func TestDeleteByNaturalKey(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, _, err := r.Add(ctx, &models.Favorite{OwnerID: "u1", RecipeRemoteID: "rcp-1"})
	require.NoError(t, err)

	removed, err := r.DeleteByNaturalKey(ctx, "u1", "rcp-1")
	require.NoError(t, err)
	assert.Equal(t, "rcp-1", removed.RecipeRemoteID)

	_, err = r.DeleteByNaturalKey(ctx, "u1", "rcp-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBindRemoteID_OnlyWhenUnbound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, _, err := r.Add(ctx, &models.Favorite{OwnerID: "u1", RecipeRemoteID: "rcp-1"})
	require.NoError(t, err)

	require.NoError(t, r.BindRemoteID(ctx, "u1", "rcp-1", "fav-remote-1"))
	require.NoError(t, r.BindRemoteID(ctx, "u1", "rcp-1", "fav-remote-2"))

	got, err := r.List(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fav-remote-1", got[0].RemoteID)
}

func TestBulkUpsert_KeepsSingleRowPerKey(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, _, err := r.Add(ctx, &models.Favorite{OwnerID: "u1", RecipeRemoteID: "rcp-1"})
	require.NoError(t, err)

	err = r.BulkUpsert(ctx, []*models.Favorite{
		{RemoteID: "fav-1", OwnerID: "u1", RecipeRemoteID: "rcp-1", Recipe: []byte(`{"title":"Soto"}`)},
		{RemoteID: "fav-2", OwnerID: "u1", RecipeRemoteID: "rcp-2"},
	})
	require.NoError(t, err)

	count, err := r.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := r.List(ctx, "u1", 10, 0)
	require.NoError(t, err)
	for _, fav := range got {
		if fav.RecipeRemoteID == "rcp-1" {
			assert.Equal(t, "fav-1", fav.RemoteID)
			assert.JSONEq(t, `{"title":"Soto"}`, string(fav.Recipe))
		}
	}
}
