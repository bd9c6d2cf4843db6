package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/skill-assessment/internal/config"
	"github.com/gokatarajesh/skill-assessment/internal/store/migrations"
	"github.com/gokatarajesh/skill-assessment/internal/store/sqlstore"
)

// dbConfig is the subset of the service config the migrator needs; it does
// not require JWT or Redis settings.
type dbConfig struct {
	Storage  config.Storage
	Postgres config.Postgres
	SQLite   config.SQLite
}

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version or reset")
		envFile = flag.String("env", "configs/.env", "Optional .env file to load first")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Debug().Err(err).Str("file", *envFile).Msg("no env file loaded")
		}
	}

	var cfg dbConfig
	if err := env.ParseWithOptions(&cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		log.Fatal().Err(err).Msg("failed to parse database configuration")
	}

	opts := sqlstore.Options{Backend: cfg.Storage.Backend}
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		if cfg.Postgres.User == "" || cfg.Postgres.Database == "" {
			log.Fatal().Msg("PG_USER and PG_DATABASE are required for the postgres backend")
		}
		opts.DSN = cfg.Postgres.DSN()
	case config.BackendSQLite:
		opts.DSN = cfg.SQLite.DSN()
		opts.MaxOpenConns = 1
	default:
		log.Fatal().Str("backend", cfg.Storage.Backend).Msg("migrations need STORAGE_BACKEND=postgres or sqlite")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := sqlstore.Open(ctx, opts, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("backend", opts.Backend).Msg("failed to open database connection")
	}
	defer st.Close()

	log.Info().Str("backend", opts.Backend).Str("command", *command).Msg("connected to database")

	if err := migrations.Run(ctx, st.DB(), opts.Backend, *command, log.Logger); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("migration failed")
	}
	log.Info().Str("command", *command).Msg("migration command finished")
}
