package auth

import "github.com/gokatarajesh/skill-assessment/internal/auth/jwt"

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Role     jwt.Role `json:"role"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	PrincipalID string   `json:"principalId"`
	Role        jwt.Role `json:"role"`
	AccessToken string   `json:"accessToken"`
	ExpiresIn   int64    `json:"expiresIn"`
}

// Credentials are the stored secret for one account.
type Credentials struct {
	ID           string
	PasswordHash string
}
