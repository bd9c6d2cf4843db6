package candidate

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
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/ids"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Repository persists candidates.
type Repository interface {
	// CreateCandidate fails with an apperr conflict when the email is taken.
	CreateCandidate(ctx context.Context, c Candidate) error
	GetCandidate(ctx context.Context, id string) (Candidate, error)
	// AddSharedEmployer appends employerID to the share list and reports
	// whether it was newly added.
	AddSharedEmployer(ctx context.Context, candidateID, employerID string) (bool, error)
}

// EmployerLookup resolves employers for share requests.
type EmployerLookup interface {
	GetEmployer(ctx context.Context, id string) (employer.Employer, error)
}

// TokenIssuer signs access tokens for new accounts.
type TokenIssuer interface {
	IssueToken(p jwt.Principal) (auth.TokenResponse, error)
}

// Service manages candidate accounts and consent.
type Service struct {
	repo      Repository
	employers EmployerLookup
	tokens    TokenIssuer
	audit     audit.Recorder
	hash      func(string) (string, error)
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(repo Repository, employers EmployerLookup, tokens TokenIssuer, recorder audit.Recorder, logger zerolog.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		employers: employers,
		tokens:    tokens,
		audit:     recorder,
		hash:      auth.HashPassword,
		now:       time.Now,
		logger:    logger.With().Str("component", "candidates").Logger(),
	}
}

// Register creates a candidate account and returns an access token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Candidate, auth.TokenResponse, error) {
	profile := req.Profile
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = auth.NormalizeEmail(profile.Email)
	profile.Github = strings.TrimSpace(profile.Github)
	profile.Attributes = StripDemographics(profile.Attributes)

	if profile.Name == "" {
		return Candidate{}, auth.TokenResponse{}, apperr.InvalidInput("name is required")
	}
	if _, err := mail.ParseAddress(profile.Email); err != nil {
		return Candidate{}, auth.TokenResponse{}, apperr.InvalidInput("a valid email is required")
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return Candidate{}, auth.TokenResponse{}, apperr.InvalidInput("%s", err.Error())
		}
		return Candidate{}, auth.TokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	c := Candidate{
		ID:              ids.New("cand"),
		Profile:         profile,
		SelectedTracks:  []question.Track{},
		SharedEmployers: []string{},
		PasswordHash:    hash,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateCandidate(ctx, c); err != nil {
		return Candidate{}, auth.TokenResponse{}, fmt.Errorf("create candidate: %w", err)
	}

	tokens, err := s.tokens.IssueToken(jwt.Principal{ID: c.ID, Role: jwt.RoleCandidate})
	if err != nil {
		return Candidate{}, auth.TokenResponse{}, err
	}

	s.audit.RecordEvent(audit.EventCandidateCreated, c.ID, map[string]string{"email": profile.Email})
	s.logger.Info().Str("candidate_id", c.ID).Msg("candidate registered")
	return c, tokens, nil
}

// Get returns a candidate by id.
func (s *Service) Get(ctx context.Context, id string) (Candidate, error) {
	return s.repo.GetCandidate(ctx, id)
}

// Share records the candidate's consent for employerID to see their results.
// Sharing twice is a no-op.
func (s *Service) Share(ctx context.Context, candidateID, employerID string) (Candidate, error) {
	employerID = strings.TrimSpace(employerID)
	if employerID == "" {
		return Candidate{}, apperr.InvalidInput("employerId is required")
	}
	if _, err := s.repo.GetCandidate(ctx, candidateID); err != nil {
		return Candidate{}, err
	}
	if _, err := s.employers.GetEmployer(ctx, employerID); err != nil {
		return Candidate{}, err
	}

	added, err := s.repo.AddSharedEmployer(ctx, candidateID, employerID)
	if err != nil {
		return Candidate{}, fmt.Errorf("share with employer: %w", err)
	}
	if added {
		s.audit.RecordEvent(audit.EventCandidateShare, candidateID, map[string]string{"employerId": employerID})
	}

	return s.repo.GetCandidate(ctx, candidateID)
}
