// Package store selects and opens the persistence backend.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/assessment"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/config"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/matching"
	"github.com/gokatarajesh/skill-assessment/internal/question"
	"github.com/gokatarajesh/skill-assessment/internal/store/memory"
	"github.com/gokatarajesh/skill-assessment/internal/store/sqlstore"
)

// Store is every repository the service needs, behind one handle.
type Store interface {
	assessment.SessionRepository
	assessment.ReportRepository
	assessment.CandidateTracks
	candidate.Repository
	employer.Repository
	matching.CandidateSource
	matching.JobSource
	auth.CredentialStore
	audit.EventStore
	question.Bank
	question.Writer
	question.StatsProvider

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlstore.Store)(nil)
)

// Open returns the backend named by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.App, logger zerolog.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.New(cfg.Audit.MemoryEvents), nil
	case config.BackendPostgres:
		return sqlstore.Open(ctx, sqlstore.Options{
			Backend:      sqlstore.BackendPostgres,
			DSN:          cfg.Postgres.DSN(),
			AutoMigrate:  cfg.Storage.AutoMigrate,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		}, logger)
	case config.BackendSQLite:
		return sqlstore.Open(ctx, sqlstore.Options{
			Backend:     sqlstore.BackendSQLite,
			DSN:         cfg.SQLite.DSN(),
			AutoMigrate: cfg.Storage.AutoMigrate,
			// SQLite serialises writers; one connection avoids SQLITE_BUSY.
			MaxOpenConns: 1,
		}, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
