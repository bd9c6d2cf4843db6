package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"skill-assessment"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Storage    Storage
	Postgres   Postgres
	SQLite     SQLite
	Redis      Redis
	Security   Security
	Assessment Assessment
	Matching   Matching
	ItemBank   ItemBank
	Audit      Audit
	CORS       CORS
}

// Storage selects the persistence backend.
type Storage struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"memory"`
	AutoMigrate bool   `env:"STORAGE_AUTO_MIGRATE" envDefault:"true"`
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host         string `env:"PG_HOST" envDefault:"localhost"`
	Port         int    `env:"PG_PORT" envDefault:"5432"`
	User         string `env:"PG_USER" envDefault:""`
	Password     string `env:"PG_PASSWORD" envDefault:""`
	Database     string `env:"PG_DATABASE" envDefault:""`
	SSLMode      string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
}

// DSN renders a pgx connection URL.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// SQLite points at the embedded database file.
type SQLite struct {
	Path string `env:"SQLITE_PATH" envDefault:"data/assessment.db"`
}

// DSN renders a modernc sqlite DSN with a busy timeout.
func (s SQLite) DSN() string {
	if s.Path == ":memory:" {
		return "file::memory:?cache=shared&_pragma=busy_timeout(5000)"
	}
	return "file:" + s.Path + "?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Redis holds lock, cache and pub/sub configuration. An empty address keeps
// every collaborator in process.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Enabled reports whether Redis-backed collaborators should be used.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret   string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL    time.Duration `env:"JWT_TOKEN_TTL" envDefault:"12h"`
	AdminAPIKey string        `env:"ADMIN_API_KEY" envDefault:""`
}

// Assessment groups session and scoring settings.
type Assessment struct {
	SessionDuration   time.Duration `env:"SESSION_DURATION" envDefault:"30m"`
	EvaluationTimeout time.Duration `env:"EVALUATION_TIMEOUT" envDefault:"3s"`
	LockWait          time.Duration `env:"SESSION_LOCK_WAIT" envDefault:"5s"`
	LockTTL           time.Duration `env:"SESSION_LOCK_TTL" envDefault:"15s"`
	PercentileTable   string        `env:"PERCENTILE_TABLE_PATH" envDefault:""`
}

// Matching tunes the eligibility engine.
type Matching struct {
	RankByScore bool `env:"MATCHING_RANK_BY_SCORE" envDefault:"true"`
	Workers     int  `env:"MATCHING_WORKERS" envDefault:"8"`
}

// ItemBank locates question files.
type ItemBank struct {
	Path        string        `env:"ITEM_BANK_PATH" envDefault:"data/questions"`
	CacheTTL    time.Duration `env:"ITEM_BANK_CACHE_TTL" envDefault:"5m"`
	SyncOnStart bool          `env:"ITEM_BANK_SYNC_ON_START" envDefault:"true"`
}

// Audit configures the event trail.
type Audit struct {
	BufferSize   int    `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	Channel      string `env:"AUDIT_CHANNEL" envDefault:"audit:events"`
	TraceLimit   int    `env:"AUDIT_TRACE_LIMIT" envDefault:"20"`
	MemoryEvents int    `env:"AUDIT_MEMORY_EVENTS" envDefault:"1000"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization,X-Admin-Key,X-Trace-Id"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate enforces cross-field requirements env tags cannot express.
func (c *App) Validate() error {
	var errs []error

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			errs = append(errs, errors.New("postgres backend requires PG_USER and PG_DATABASE"))
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite backend requires SQLITE_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"SESSION_DURATION", c.Assessment.SessionDuration},
		{"EVALUATION_TIMEOUT", c.Assessment.EvaluationTimeout},
		{"SESSION_LOCK_WAIT", c.Assessment.LockWait},
		{"SESSION_LOCK_TTL", c.Assessment.LockTTL},
		{"JWT_TOKEN_TTL", c.Security.TokenTTL},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.name))
		}
	}
	if c.Matching.Workers <= 0 {
		errs = append(errs, errors.New("MATCHING_WORKERS must be positive"))
	}
	if c.Audit.BufferSize <= 0 {
		errs = append(errs, errors.New("AUDIT_BUFFER_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c *App) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
