package remote

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableStore returns a PostgresStore whose pool points at a closed
// port, so every operation fails at the network level.
func unreachableStore(t *testing.T) *PostgresStore {
	t.Helper()
	db, err := sql.Open("pgx", "postgres://postgres@127.0.0.1:1/smartcook?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	s := &PostgresStore{db: db}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateOnce_FailureStaysRetryable(t *testing.T) {
	s := unreachableStore(t)

	err := s.migrateOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, s.migrated)
}

func TestMigrateOnce_ConcurrentCallsSerialized(t *testing.T) {
	// the probe loop and a user-initiated push can ping at the same time;
	// only one migration attempt may run at once
	s := unreachableStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.migrateOnce(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.False(t, s.migrated)
}

func TestMigrateOnce_SkipsWhenAlreadyMigrated(t *testing.T) {
	s := &PostgresStore{migrated: true}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.migrateOnce(context.Background()))
		}()
	}
	wg.Wait()
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, wrapErr(nil))

	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	wrapped := fmt.Errorf("insert: %w", pgErr)
	assert.NotErrorIs(t, wrapErr(wrapped), ErrUnavailable)

	netErr := fmt.Errorf("dial tcp: connection refused")
	assert.ErrorIs(t, wrapErr(netErr), ErrUnavailable)
}
