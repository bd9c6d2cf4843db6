package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
)

// CredentialStore looks up the password hash for an account by role and email.
type CredentialStore interface {
	Credentials(ctx context.Context, role jwt.Role, email string) (Credentials, error)
}

// Service handles authentication.
type Service struct {
	creds    CredentialStore
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(creds CredentialStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		creds:    creds,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

var errBadCredentials = apperr.Unauthorized("invalid email or password")

// Login verifies an email/password pair for the given role.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	email := NormalizeEmail(req.Email)
	if !req.Role.Valid() {
		return TokenResponse{}, apperr.InvalidInput("role must be candidate or employer")
	}
	if email == "" || req.Password == "" {
		return TokenResponse{}, apperr.InvalidInput("email and password are required")
	}

	creds, err := s.creds.Credentials(ctx, req.Role, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return TokenResponse{}, errBadCredentials
		}
		return TokenResponse{}, fmt.Errorf("lookup credentials: %w", err)
	}

	if err := VerifyPassword(creds.PasswordHash, req.Password); err != nil {
		s.logger.Info().Str("role", string(req.Role)).Msg("login rejected")
		return TokenResponse{}, errBadCredentials
	}

	return s.IssueToken(jwt.Principal{ID: creds.ID, Role: req.Role})
}

// IssueToken signs an access token for p.
func (s *Service) IssueToken(p jwt.Principal) (TokenResponse, error) {
	token, err := s.tokenMgr.GenerateAccessToken(p)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return TokenResponse{
		PrincipalID: p.ID,
		Role:        p.Role,
		AccessToken: token,
		ExpiresIn:   int64(s.tokenMgr.TTL().Seconds()),
	}, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(token)
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
