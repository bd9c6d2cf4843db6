package candidate

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

// HTTPHandlers exposes candidate accounts over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

type registerResponse struct {
	CandidateID string `json:"candidateId"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Register handles POST /api/candidates
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	c, tokens, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusCreated, registerResponse{
		CandidateID: c.ID,
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
	})
}

// Get handles GET /api/candidates/{candidateId}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "candidateId"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, c)
}

type shareRequest struct {
	EmployerID string `json:"employerId"`
}

// Share handles POST /api/candidates/{candidateId}/share
func (h *HTTPHandlers) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	c, err := h.svc.Share(r.Context(), chi.URLParam(r, "candidateId"), req.EmployerID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, map[string][]string{"sharedWith": c.SharedEmployers})
}

func (h *HTTPHandlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == "" {
		l := logging.FromContext(r.Context(), h.logger)
		l.Error().Err(err).Str("component", "candidate").Str("path", r.URL.Path).Msg("candidate request failed")
	}
	httperrors.RespondAppError(w, r, err)
}
