package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcook/syncengine/internal/common"
	"github.com/smartcook/syncengine/internal/models"
)

func TestChatAppend_CreateThenUpdate(t *testing.T) {
	svc, db, _, _ := setupServices(t)
	ctx := context.Background()

	now := time.Now().UTC()
	h, err := svc.Chat.Append(ctx, "u1", models.Message{Role: "user", Content: "resep ayam?", Timestamp: now})
	require.NoError(t, err)
	require.Len(t, h.Messages, 1)

	h, err = svc.Chat.Append(ctx, "u1", models.Message{Role: "model", Content: "coba ayam goreng", Timestamp: now})
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)

	entries := queuedEntries(t, db)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
	assert.Equal(t, models.ActionUpdate, entries[1].Action)
	assert.Equal(t, models.KindChatHistory, entries[0].Kind)
}

func TestChatAppend_NoMessagesIsARead(t *testing.T) {
	svc, db, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := svc.Chat.Append(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, queuedEntries(t, db))
}

func TestChatGet_RemoteFallbackFillsCache(t *testing.T) {
	svc, _, mem, eng := setupServices(t)
	ctx := context.Background()
	eng.Monitor.Probe(ctx)

	h := &models.ChatHistory{OwnerID: "u1", Messages: []models.Message{{Role: "user", Content: "halo"}}}
	data := mustMarshal(t, h)
	_, err := mem.UpsertByNaturalKey(ctx, models.KindChatHistory, "u1", "u1", data)
	require.NoError(t, err)

	got, err := svc.Chat.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.NotEmpty(t, got.RemoteID)

	// a second read is served locally even with the remote gone
	mem.SetOnline(false)
	got, err = svc.Chat.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestChatGet_OfflineMissDoesNotBlock(t *testing.T) {
	svc, _, mem, _ := setupServices(t)
	mem.SetOnline(false)

	_, err := svc.Chat.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestChatClear_QueuesDelete(t *testing.T) {
	svc, db, mem, eng := setupServices(t)
	ctx := context.Background()

	_, err := svc.Chat.Append(ctx, "u1", models.Message{Role: "user", Content: "halo"})
	require.NoError(t, err)
	require.NoError(t, svc.Chat.Clear(ctx, "u1"))

	_, err = svc.Chat.Get(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	entries := queuedEntries(t, db)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionDelete, entries[1].Action)

	// a full drain leaves no transcript remotely
	eng.Monitor.Probe(ctx)
	_, err = eng.Scheduler.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, mem.Len(models.KindChatHistory))
}
