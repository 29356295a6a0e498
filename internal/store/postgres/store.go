// Package postgres implements store.Store on PostgreSQL through a pgx pool.
//
// Authorization is enforced by row-level security: each operation runs in a
// transaction that first sets app.user_id, and every table's policy only admits
// rows owned by that user. Queries still filter by user_id so plans use the
// per-user indexes.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store provides PostgreSQL-backed persistence.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at connString and verifies the connection.
func Open(ctx context.Context, connString string, logger *slog.Logger) (*Store, error) {
	if connString == "" {
		return nil, fmt.Errorf("database url not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger, now: time.Now}, nil
}

// Migrate applies the embedded schema, including the row-level security policies.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// withUser runs fn in a transaction scoped to userID for row-level security.
func (s *Store) withUser(ctx context.Context, userID string, fn func(tx pgx.Tx) error) error {
	if userID == "" {
		return apperrors.Validation("user id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.user_id', $1, true)`, userID); err != nil {
		return storeErr(err, "failed to set user scope")
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr(err, "failed to commit transaction")
	}
	return nil
}

func storeErr(err error, format string, args ...any) error {
	return apperrors.Store(err, fmt.Sprintf(format, args...))
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
