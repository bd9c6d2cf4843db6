package employer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	"github.com/gokatarajesh/skill-assessment/internal/ids"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Repository persists employers and their jobs.
type Repository interface {
	// CreateEmployer fails with an apperr conflict when the email is taken.
	CreateEmployer(ctx context.Context, e Employer) error
	GetEmployer(ctx context.Context, id string) (Employer, error)
	GetJob(ctx context.Context, jobID string) (Job, error)
	// UpsertJob inserts or replaces the job keyed by its id.
	UpsertJob(ctx context.Context, job Job) error
}

// TokenIssuer signs access tokens for new accounts.
type TokenIssuer interface {
	IssueToken(p jwt.Principal) (auth.TokenResponse, error)
}

// Service manages employers and job requirements.
type Service struct {
	repo   Repository
	tokens TokenIssuer
	audit  audit.Recorder
	hash   func(string) (string, error)
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(repo Repository, tokens TokenIssuer, recorder audit.Recorder, logger zerolog.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		audit:  recorder,
		hash:   auth.HashPassword,
		now:    time.Now,
		logger: logger.With().Str("component", "employers").Logger(),
	}
}

// Create registers an employer and returns an access token for it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Employer, auth.TokenResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := auth.NormalizeEmail(req.Email)
	if name == "" {
		return Employer{}, auth.TokenResponse{}, apperr.InvalidInput("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Employer{}, auth.TokenResponse{}, apperr.InvalidInput("a valid email is required")
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return Employer{}, auth.TokenResponse{}, apperr.InvalidInput("%s", err.Error())
		}
		return Employer{}, auth.TokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	e := Employer{
		ID:           ids.New("emp"),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateEmployer(ctx, e); err != nil {
		return Employer{}, auth.TokenResponse{}, fmt.Errorf("create employer: %w", err)
	}

	tokens, err := s.tokens.IssueToken(jwt.Principal{ID: e.ID, Role: jwt.RoleEmployer})
	if err != nil {
		return Employer{}, auth.TokenResponse{}, err
	}

	s.audit.RecordEvent(audit.EventEmployerCreated, e.ID, map[string]string{"name": name})
	s.logger.Info().Str("employer_id", e.ID).Msg("employer created")
	return e, tokens, nil
}

// Get returns an employer by id.
func (s *Service) Get(ctx context.Context, id string) (Employer, error) {
	return s.repo.GetEmployer(ctx, id)
}

// UpsertJob creates or replaces a job owned by employerID. An empty job id
// creates a new job.
func (s *Service) UpsertJob(ctx context.Context, employerID string, job Job) (Job, error) {
	if _, err := s.repo.GetEmployer(ctx, employerID); err != nil {
		return Job{}, err
	}

	job, err := normalizeJob(job)
	if err != nil {
		return Job{}, err
	}

	if job.ID == "" {
		job.ID = ids.New("job")
	} else {
		existing, err := s.repo.GetJob(ctx, job.ID)
		switch {
		case err == nil && existing.EmployerID != employerID:
			return Job{}, apperr.Unauthorized("unauthorized: job %s belongs to another employer", job.ID)
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return Job{}, fmt.Errorf("load job: %w", err)
		}
	}
	job.EmployerID = employerID
	job.UpdatedAt = s.now().UTC()

	if err := s.repo.UpsertJob(ctx, job); err != nil {
		return Job{}, fmt.Errorf("upsert job: %w", err)
	}

	s.audit.RecordEvent(audit.EventJobUpserted, employerID, map[string]string{
		"jobId":      job.ID,
		"employerId": employerID,
	})
	return job, nil
}

// Job returns jobID when it belongs to employerID.
func (s *Service) Job(ctx context.Context, employerID, jobID string) (Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.EmployerID != employerID {
		return Job{}, apperr.NotFound("job not found")
	}
	return job, nil
}

// normalizeJob dedupes required tracks and keeps only their thresholds.
func normalizeJob(job Job) (Job, error) {
	job.ID = strings.TrimSpace(job.ID)
	if len(job.RequiredTracks) == 0 {
		return Job{}, apperr.InvalidInput("requiredTracks must not be empty")
	}

	tracks := make([]question.Track, 0, len(job.RequiredTracks))
	scores := make(map[question.Track]int, len(job.RequiredTracks))
	for _, t := range job.RequiredTracks {
		if !t.Valid() {
			return Job{}, apperr.InvalidInput("unknown track %q", t)
		}
		if _, dup := scores[t]; dup {
			continue
		}
		threshold, ok := job.MinScores[t]
		if !ok {
			return Job{}, apperr.InvalidInput("minScores is missing a threshold for %s", t)
		}
		if threshold < 0 || threshold > 100 {
			return Job{}, apperr.InvalidInput("minScores for %s must be between 0 and 100", t)
		}
		tracks = append(tracks, t)
		scores[t] = threshold
	}
	if job.PreferredExperienceYears != nil && *job.PreferredExperienceYears < 0 {
		return Job{}, apperr.InvalidInput("preferredExperienceYears must not be negative")
	}

	job.RequiredTracks = tracks
	job.MinScores = scores
	return job, nil
}
