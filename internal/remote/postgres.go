package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	"github.com/smartcook/syncengine/internal/models"
	"github.com/smartcook/syncengine/internal/remote/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store over a single JSONB documents table,
// unique on (kind, natural_key).
type PostgresStore struct {
	db *sql.DB

	// mu serializes migrateOnce: Ping runs concurrently from the probe
	// loop and user-initiated push/pull, and goose must not run twice.
	mu       sync.Mutex
	migrated bool
}

// NewPostgresStore opens a connection pool for dsn and applies the
// documents schema. The remote store being down at construction time is
// not an error: the pool is created lazily and the schema retried on the
// first successful Ping.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks reachability and, on the first success, runs migrations.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrapErr(err)
	}
	return s.migrateOnce(ctx)
}

func (s *PostgresStore) migrateOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrated {
		return nil
	}
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return wrapErr(err)
	}
	s.migrated = true
	return nil
}

func (s *PostgresStore) UpsertByNaturalKey(ctx context.Context, kind models.Kind, key, ownerID string, doc []byte) (string, error) {
	query := `
		INSERT INTO documents (id, kind, owner_id, natural_key, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (kind, natural_key)
		DO UPDATE SET doc = EXCLUDED.doc, owner_id = EXCLUDED.owner_id, updated_at = now()
		RETURNING id`

	var id string
	err := s.db.QueryRowContext(ctx, query, uuid.NewString(), string(kind), ownerID, key, doc).Scan(&id)
	if err != nil {
		return "", wrapErr(err)
	}
	return id, nil
}

func (s *PostgresStore) UpsertByID(ctx context.Context, kind models.Kind, id string, doc []byte) error {
	query := `UPDATE documents SET doc = $1, updated_at = now() WHERE kind = $2 AND id = $3`
	if _, err := s.db.ExecContext(ctx, query, doc, string(kind), id); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, kind models.Kind, id string) error {
	// no-op if absent
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = $1 AND id = $2`, string(kind), id); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *PostgresStore) DeleteByNaturalKey(ctx context.Context, kind models.Kind, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = $1 AND natural_key = $2`, string(kind), key); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, kind models.Kind, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, owner_id, natural_key, doc, updated_at
		 FROM documents WHERE kind = $1 AND id = $2`, string(kind), id)
	return scanDocument(row)
}

func (s *PostgresStore) GetByNaturalKey(ctx context.Context, kind models.Kind, key string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, owner_id, natural_key, doc, updated_at
		 FROM documents WHERE kind = $1 AND natural_key = $2`, string(kind), key)
	return scanDocument(row)
}

func (s *PostgresStore) FindMany(ctx context.Context, kind models.Kind, ownerID string, limit int) ([]*Document, error) {
	query := `SELECT id, kind, owner_id, natural_key, doc, updated_at FROM documents WHERE kind = $1`
	args := []any{string(kind)}
	if ownerID != "" {
		query += ` AND owner_id = $2`
		args = append(args, ownerID)
	}
	query += ` ORDER BY updated_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var result []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		d    Document
		kind string
	)
	err := row.Scan(&d.ID, &kind, &d.OwnerID, &d.NaturalKey, &d.Doc, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	d.Kind = models.Kind(kind)
	return &d, nil
}

// wrapErr normalizes driver errors. Server-side errors (constraint
// violations, bad statements) carry a Postgres error code and pass through
// unchanged; anything else is a network-level failure and is reported as
// ErrUnavailable so callers can treat it as transient.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
