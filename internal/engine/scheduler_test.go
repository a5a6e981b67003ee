package engine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcook/syncengine/internal/logging"
	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote"
	"github.com/smartcook/syncengine/internal/repositories/fridge"
	"github.com/smartcook/syncengine/internal/repositories/outbox"
)

func newTestScheduler(t *testing.T, db *sql.DB, mem *remote.MemoryStore, maxAttempts int) (*Scheduler, *Monitor) {
	t.Helper()
	monitor := NewMonitor(mem, time.Minute, logging.NewNop())
	monitor.Probe(context.Background())
	s := NewScheduler(db, NewRegistry(db, mem), monitor, time.Minute, maxAttempts, logging.NewNop())
	return s, monitor
}

func appendEntry(t *testing.T, db *sql.DB, e *models.OutboxEntry) {
	t.Helper()
	require.NoError(t, outbox.NewSQLiteRepository(db).Append(context.Background(), e))
}

func TestDrain_AppliesFIFOAndPurges(t *testing.T) {
	db := setupDB(t)
	mem := remote.NewMemoryStore()
	s, _ := newTestScheduler(t, db, mem, 0)
	ctx := context.Background()

	repo := fridge.NewSQLiteRepository(db)
	item, _, err := repo.UpsertByNaturalKey(ctx, &models.FridgeItem{
		OwnerID: "u1", IngredientName: "ayam", Category: models.CategoryProtein, Quantity: 500,
	})
	require.NoError(t, err)

	// create followed by an update of the same item, queued offline
	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1", Payload: mustJSON(t, item),
	})
	item.Quantity = 750
	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionUpdate, Kind: models.KindFridgeItem, OwnerID: "u1", Payload: mustJSON(t, item),
	})

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 0, res.Failed)

	// the remote converged on the last write
	doc, err := mem.GetByNaturalKey(ctx, models.KindFridgeItem, item.NaturalKey())
	require.NoError(t, err)
	assert.Contains(t, string(doc.Doc), `"quantity":750`)

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	// synced entries were purged, not retained
	var total int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&total))
	assert.Equal(t, 0, total)
}

func TestDrain_SkipsWhileOffline(t *testing.T) {
	db := setupDB(t)
	mem := remote.NewMemoryStore()
	s, monitor := newTestScheduler(t, db, mem, 0)
	ctx := context.Background()

	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1",
		Payload: mustJSON(t, &models.FridgeItem{OwnerID: "u1", IngredientName: "x", Category: models.CategorySayur}),
	})

	monitor.MarkDown()
	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Synced)
	assert.Equal(t, 0, mem.Applied())

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestDrain_FailureDoesNotBlockBatch(t *testing.T) {
	db := setupDB(t)
	mem := remote.NewMemoryStore()
	s, _ := newTestScheduler(t, db, mem, 0)
	ctx := context.Background()

	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1",
		Payload: []byte("{not json"),
	})
	good := &models.FridgeItem{OwnerID: "u1", IngredientName: "telur", Category: models.CategoryProtein, Quantity: 6}
	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1", Payload: mustJSON(t, good),
	})

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, mem.Len(models.KindFridgeItem))

	// the failed entry stays queued with one recorded attempt
	entries, err := outbox.NewSQLiteRepository(db).ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Attempts)
}

func TestDrain_DeadLetterAfterCeiling(t *testing.T) {
	db := setupDB(t)
	mem := remote.NewMemoryStore()
	s, _ := newTestScheduler(t, db, mem, 2)
	ctx := context.Background()

	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1",
		Payload: []byte("{not json"),
	})

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Dead)

	res, err = s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dead)

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	// retired entries stay for inspection
	var total int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE dead = 1`).Scan(&total))
	assert.Equal(t, 1, total)
}

type blockingApplier struct {
	entered chan struct{}
	release chan struct{}
	applied int
}

func (a *blockingApplier) Apply(ctx context.Context, entry *models.OutboxEntry) (string, error) {
	a.applied++
	close(a.entered)
	<-a.release
	return "rid", nil
}

func TestDrain_ConcurrentTicksRunOnce(t *testing.T) {
	db := setupDB(t)
	mem := remote.NewMemoryStore()
	monitor := NewMonitor(mem, time.Minute, logging.NewNop())
	monitor.Probe(context.Background())

	applier := &blockingApplier{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(db, Registry{models.KindFridgeItem: applier}, monitor, time.Minute, 0, logging.NewNop())
	ctx := context.Background()

	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1", Payload: []byte(`{}`),
	})

	done := make(chan DrainResult, 1)
	go func() {
		res, err := s.Drain(ctx)
		assert.NoError(t, err)
		done <- res
	}()

	// second tick arrives mid-drain and must be a no-op
	<-applier.entered
	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Synced)

	close(applier.release)
	first := <-done
	assert.Equal(t, 1, first.Synced)
	assert.Equal(t, 1, applier.applied)
}

func TestDrain_RemoteOutageMarksMonitorDown(t *testing.T) {
	db := setupDB(t)
	mem := remote.NewMemoryStore()
	s, monitor := newTestScheduler(t, db, mem, 0)
	ctx := context.Background()

	appendEntry(t, db, &models.OutboxEntry{
		Action: models.ActionCreate, Kind: models.KindFridgeItem, OwnerID: "u1",
		Payload: mustJSON(t, &models.FridgeItem{OwnerID: "u1", IngredientName: "x", Category: models.CategorySayur}),
	})

	mem.SetOnline(false)
	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, monitor.IsUp())

	// the entry survives for the next drain
	mem.SetOnline(true)
	monitor.Probe(ctx)
	res, err = s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
}
