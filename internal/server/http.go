package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/assessment"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/config"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/internal/matching"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
)

const requestTimeout = 30 * time.Second

// Check is a named dependency probe used by /v1/ping.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handlers bundles everything the router mounts.
type Handlers struct {
	Tokens     auth.TokenValidator
	Auth       *auth.HTTPHandlers
	Candidates *candidate.HTTPHandlers
	Employers  *employer.HTTPHandlers
	Assessment *assessment.HTTPHandlers
	Matching   *matching.HTTPHandlers
	Feed       http.HandlerFunc
	Trace      http.HandlerFunc
	BankStats  http.HandlerFunc
	Checks     []Check
}

// NewHTTPServer wires health, metrics and the API routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, logger, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the chi router.
func NewRouter(cfg *config.App, logger zerolog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(envelope.Trace)
	r.Use(logging.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{envelope.HeaderTraceID},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/ping", pingHandler(h.Checks, logger))

	authn := auth.Authenticate(h.Tokens, logger)

	// Websockets stay outside the request timeout.
	if h.Feed != nil {
		r.With(authn, auth.RequireRole(jwt.RoleEmployer), auth.RequireSubject("employerId")).
			Get("/ws/employers/{employerId}/feed", h.Feed)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(authn)

		r.Route("/auth", h.Auth.Routes)

		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", h.Candidates.Register)
			r.Route("/{candidateId}", func(r chi.Router) {
				r.Use(auth.RequireRole(jwt.RoleCandidate), auth.RequireSubject("candidateId"))
				r.Get("/", h.Candidates.Get)
				r.Post("/share", h.Candidates.Share)
				r.Get("/matches", h.Matching.Matches)
				h.Assessment.CandidateRoutes(r)
			})
		})

		r.Route("/tests", func(r chi.Router) {
			r.Use(auth.RequireRole(jwt.RoleCandidate))
			h.Assessment.TestRoutes(r)
		})

		r.Route("/employers", func(r chi.Router) {
			r.Post("/", h.Employers.Create)
			r.Route("/{employerId}", func(r chi.Router) {
				r.Use(auth.RequireRole(jwt.RoleEmployer), auth.RequireSubject("employerId"))
				r.Post("/jobs", h.Employers.UpsertJob)
				r.Get("/jobs/{jobId}", h.Employers.GetJob)
				r.Get("/jobs/{jobId}/eligible", h.Matching.Eligible)
				r.Get("/candidates/{candidateId}/scores/{trackId}", h.Matching.CandidateReport)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdminKey(cfg.Security.AdminAPIKey))
			if h.Trace != nil {
				r.Get("/trace", h.Trace)
			}
			if h.BankStats != nil {
				r.Get("/item-bank-stats", h.BankStats)
			}
		})
	})

	return r
}

func pingHandler(checks []Check, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				l := logging.FromContext(r.Context(), logger)
				l.Error().Err(err).Str("dependency", c.Name).Msg("dependency ping failed")
				results[c.Name] = "error"
				status = http.StatusBadGateway
				continue
			}
			results[c.Name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pong":         status == http.StatusOK,
			"dependencies": results,
		})
	}
}
