package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
	httperrors "github.com/gokatarajesh/skill-assessment/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger,
	}
}

// Routes mounts the auth endpoints.
func (h *HTTPHandlers) Routes(r chi.Router) {
	r.Post("/login", h.Login)
}

// Login handles POST /api/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	tokens, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUnauthorized:
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid email or password")
		default:
			if apperr.KindOf(err) == "" {
				l := logging.FromContext(r.Context(), h.logger)
				l.Error().Err(err).Str("component", "auth").Msg("login failed")
			}
			httperrors.RespondAppError(w, r, err)
		}
		return
	}

	envelope.JSON(w, r, http.StatusOK, tokens)
}
