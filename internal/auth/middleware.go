package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/skill-assessment/pkg/http/errors"
)

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type claimsKey struct{}

// HeaderAdminKey authenticates admin endpoints.
const HeaderAdminKey = "X-Admin-Key"

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok && claims != nil
}

// Authenticate validates JWT tokens and injects claims into the request
// context. Requests without a token pass through unauthenticated. Browsers
// cannot set headers on websocket upgrades, so a token query parameter is
// accepted too.
func Authenticate(validator TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid authorization header")
					return
				}
				token = parts[1]
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole ensures the request carries a token with one of roles.
func RequireRole(roles ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, apperr.FriendlyText("unauthorized"))
		})
	}
}

// RequireSubject ensures the URL parameter param names the token's own account.
func RequireSubject(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
				return
			}
			if chi.URLParam(r, param) != claims.PrincipalID() {
				httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, apperr.FriendlyText("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminKey guards operator endpoints with a shared key. An empty key
// disables them.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Admin API is disabled")
				return
			}
			got := r.Header.Get(HeaderAdminKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, apperr.FriendlyText("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
