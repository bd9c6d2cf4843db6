package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/assessment"
	"github.com/gokatarajesh/skill-assessment/internal/assessment/scoring"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/config"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/evaluator"
	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/internal/matching"
	"github.com/gokatarajesh/skill-assessment/internal/question"
	"github.com/gokatarajesh/skill-assessment/internal/server"
	"github.com/gokatarajesh/skill-assessment/internal/store"
	ws "github.com/gokatarajesh/skill-assessment/pkg/http/ws"
)

// Application aggregates shared infrastructure (store, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	store store.Store
	redis *redis.Client
	http  *http.Server
	hub   *ws.Hub

	recorder    *audit.AsyncRecorder
	broadcaster *employer.Broadcaster
	bgCancels   []context.CancelFunc
	bgWG        sync.WaitGroup
}

// New bootstraps logger, storage, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("storage", cfg.Storage.Backend).Bool("redis", cfg.Redis.Enabled()).Msg("starting application bootstrap")

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	}

	a, err := build(ctx, cfg, logger, st, redisClient)
	if err != nil {
		_ = st.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	return a, nil
}

// build wires every service onto st. redisClient may be nil.
func build(ctx context.Context, cfg *config.App, logger zerolog.Logger, st store.Store, redisClient *redis.Client) (*Application, error) {
	var (
		bank   question.Bank = st
		cached *question.CachedBank
	)
	if redisClient != nil {
		cached = question.NewCachedBank(st, question.NewRedisPoolCache(redisClient, cfg.ItemBank.CacheTTL), logger)
		bank = cached
	}

	if cfg.ItemBank.SyncOnStart && cfg.ItemBank.Path != "" {
		if err := syncItemBank(ctx, cfg.ItemBank.Path, st, logger); err != nil {
			return nil, err
		}
		if cached != nil {
			if err := cached.Invalidate(ctx); err != nil {
				logger.Warn().Err(err).Msg("pool cache invalidation failed; pools refresh on TTL")
			}
		}
	}

	scoringCfg := scoring.DefaultConfig()
	if path := cfg.Assessment.PercentileTable; path != "" {
		table, err := scoring.LoadPercentileTable(path)
		if err != nil {
			return nil, fmt.Errorf("load percentile table: %w", err)
		}
		scoringCfg.Percentiles = table
	}

	// Audit trail and the employer feed.
	hub := ws.NewHub(logger)
	sinks := []audit.Sink{audit.NewLogSink(logger), audit.NewStoreSink(st)}
	var broadcaster *employer.Broadcaster
	if redisClient != nil {
		sinks = append(sinks, audit.NewRedisPublisher(redisClient, cfg.Audit.Channel))
		broadcaster = employer.NewBroadcaster(redisClient, hub, cfg.Audit.Channel, logger)
	} else {
		sinks = append(sinks, employer.NewFeedSink(hub))
	}
	recorder := audit.NewAsyncRecorder(cfg.Audit.BufferSize, logger, sinks...)

	authSvc := auth.NewService(st, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			TTL:    cfg.Security.TokenTTL,
			Issuer: cfg.Name,
		},
	}, logger)

	var locker assessment.Locker = assessment.NewLocalLocker()
	if redisClient != nil {
		locker = assessment.NewRedisLocker(redisClient, cfg.Assessment.LockTTL, logger)
	}

	assessmentSvc := assessment.NewService(
		st, st, st,
		bank,
		evaluator.NewBounded(evaluator.NewHeuristic(), cfg.Assessment.EvaluationTimeout),
		scoring.NewEngine(scoringCfg),
		locker,
		recorder,
		assessment.ServiceOptions{
			SessionDuration: cfg.Assessment.SessionDuration,
			LockWait:        cfg.Assessment.LockWait,
		},
		logger,
	)
	candidateSvc := candidate.NewService(st, st, authSvc, recorder, logger)
	employerSvc := employer.NewService(st, authSvc, recorder, logger)
	matchEngine := matching.NewEngine(st, st, st, recorder, matching.Options{
		Workers:     cfg.Matching.Workers,
		RankByScore: cfg.Matching.RankByScore,
	}, logger)

	checks := []server.Check{{Name: "store", Ping: st.Ping}}
	if redisClient != nil {
		checks = append(checks, server.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	apiServer := server.NewHTTPServer(cfg, logger, server.Handlers{
		Tokens:     authSvc,
		Auth:       auth.NewHTTPHandlers(authSvc, logger),
		Candidates: candidate.NewHTTPHandlers(candidateSvc, logger),
		Employers:  employer.NewHTTPHandlers(employerSvc, logger),
		Assessment: assessment.NewHTTPHandlers(assessmentSvc, logger),
		Matching:   matching.NewHTTPHandlers(matchEngine, logger),
		Feed:       employer.FeedHandler(hub, ws.NewUpgrader(cfg.CORS.AllowedOrigins), logger),
		Trace:      audit.TraceHandler(st, cfg.Audit.TraceLimit, logger),
		BankStats:  question.StatsHandler(st, logger),
		Checks:     checks,
	})

	return &Application{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		redis:       redisClient,
		http:        apiServer,
		hub:         hub,
		recorder:    recorder,
		broadcaster: broadcaster,
		bgCancels:   make([]context.CancelFunc, 0, 2),
	}, nil
}

// Handler exposes the router for in-process callers.
func (a *Application) Handler() http.Handler { return a.http.Handler }

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	a.Shutdown()
	return runErr
}

// Shutdown stops the server, drains the audit worker and closes connections.
func (a *Application) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	a.bgWG.Wait()
	a.hub.Close()

	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("store shutdown error")
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	a.goBackground(ctx, "audit recorder", a.recorder.Run)
	if a.broadcaster != nil {
		a.goBackground(ctx, "employer feed broadcaster", a.broadcaster.Run)
	}
}

func (a *Application) goBackground(ctx context.Context, name string, run func(context.Context) error) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	a.bgWG.Add(1)
	go func() {
		defer a.bgWG.Done()
		if err := run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Str("worker", name).Msg("background worker stopped")
		}
	}()
}

func syncItemBank(ctx context.Context, path string, w question.Writer, logger zerolog.Logger) error {
	if _, err := os.Stat(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("item bank path unavailable; skipping sync")
		return nil
	}
	qs, err := question.LoadDir(path, logger)
	if err != nil {
		return fmt.Errorf("load item bank: %w", err)
	}
	n, err := w.UpsertQuestions(ctx, qs)
	if err != nil {
		return fmt.Errorf("sync item bank: %w", err)
	}
	logger.Info().Int("questions", n).Str("path", path).Msg("item bank synced")
	return nil
}
