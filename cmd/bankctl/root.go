package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/skill-assessment/internal/config"
	"github.com/gokatarajesh/skill-assessment/internal/question"
	"github.com/gokatarajesh/skill-assessment/internal/store/sqlstore"
)

var rootCmd = &cobra.Command{
	Use:           "bankctl",
	Short:         "Manage the assessment item bank",
	Long:          "bankctl validates question files and loads them into the SQL item bank used by the assessment service.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env", "configs/.env", "Optional .env file with database settings")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// dbConfig is the slice of service configuration bankctl reads.
type dbConfig struct {
	Storage  config.Storage
	Postgres config.Postgres
	SQLite   config.SQLite
	Redis    config.Redis
}

func loadConfig(cmd *cobra.Command, logger zerolog.Logger) (dbConfig, error) {
	if path, _ := cmd.Flags().GetString("env"); path != "" {
		if err := godotenv.Load(path); err != nil {
			logger.Debug().Err(err).Str("file", path).Msg("no env file loaded")
		}
	}

	var cfg dbConfig
	if err := env.ParseWithOptions(&cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return dbConfig{}, fmt.Errorf("parse database config: %w", err)
	}
	return cfg, nil
}

// openStore connects to the SQL backend named by STORAGE_BACKEND.
func openStore(ctx context.Context, cfg dbConfig, logger zerolog.Logger) (*sqlstore.Store, error) {
	opts := sqlstore.Options{Backend: cfg.Storage.Backend, AutoMigrate: cfg.Storage.AutoMigrate}
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		opts.DSN = cfg.Postgres.DSN()
	case config.BackendSQLite:
		opts.DSN = cfg.SQLite.DSN()
		opts.MaxOpenConns = 1
	default:
		return nil, fmt.Errorf("bankctl needs STORAGE_BACKEND=postgres or sqlite, got %q", cfg.Storage.Backend)
	}
	return sqlstore.Open(ctx, opts, logger)
}

// flushPoolCache drops the API's cached question pools so an import is
// visible before the cache TTL runs out. No-op without REDIS_ADDR.
func flushPoolCache(ctx context.Context, cfg config.Redis) (int, error) {
	if !cfg.Enabled() {
		return 0, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	defer client.Close()
	return question.NewRedisPoolCache(client, 0).Invalidate(ctx)
}
