// Package sqlstore persists records through database/sql. The same queries run
// on Postgres (pgx stdlib driver) and SQLite (modernc); nested values are
// stored as JSON text and timestamps as unix nanoseconds.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/store/migrations"
)

// Backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Options configures Open.
type Options struct {
	Backend      string
	DSN          string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
}

// Store implements every repository on one *sql.DB.
type Store struct {
	db      *sql.DB
	backend string
	logger  zerolog.Logger
}

// Open connects, pings and optionally migrates the database.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (*Store, error) {
	var driver string
	switch opts.Backend {
	case BackendPostgres:
		driver = "pgx"
	case BackendSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported sql backend %q", opts.Backend)
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Backend, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Backend, err)
	}

	s := New(db, opts.Backend, logger)
	if opts.AutoMigrate {
		if err := migrations.Run(ctx, db, opts.Backend, "up", s.logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	s.logger.Info().Str("backend", opts.Backend).Bool("auto_migrate", opts.AutoMigrate).Msg("sql store ready")
	return s, nil
}

// New wraps an already opened database.
func New(db *sql.DB, backend string, logger zerolog.Logger) *Store {
	return &Store{
		db:      db,
		backend: backend,
		logger:  logger.With().Str("component", "sqlstore").Logger(),
	}
}

// DB exposes the handle for migrations and admin tooling.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var nowNanos = func() int64 { return time.Now().UnixNano() }

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// isUniqueViolation recognises duplicate-key errors from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows onto an apperr not-found error.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
