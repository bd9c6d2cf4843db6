package employer

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

// HTTPHandlers exposes employers and jobs over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

type createResponse struct {
	EmployerID  string `json:"employerId"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Create handles POST /api/employers
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	e, tokens, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusCreated, createResponse{
		EmployerID:  e.ID,
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
	})
}

// UpsertJob handles POST /api/employers/{employerId}/jobs
func (h *HTTPHandlers) UpsertJob(w http.ResponseWriter, r *http.Request) {
	var job Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	saved, err := h.svc.UpsertJob(r.Context(), chi.URLParam(r, "employerId"), job)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, saved)
}

// GetJob handles GET /api/employers/{employerId}/jobs/{jobId}
func (h *HTTPHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Job(r.Context(), chi.URLParam(r, "employerId"), chi.URLParam(r, "jobId"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, job)
}

func (h *HTTPHandlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == "" {
		l := logging.FromContext(r.Context(), h.logger)
		l.Error().Err(err).Str("component", "employer").Str("path", r.URL.Path).Msg("employer request failed")
	}
	httperrors.RespondAppError(w, r, err)
}
