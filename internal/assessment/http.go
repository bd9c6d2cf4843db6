package assessment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/internal/question"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
	httperrors "github.com/gokatarajesh/skill-assessment/pkg/http/errors"
)

// HTTPHandlers exposes the session state machine over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// CandidateRoutes mounts under /api/candidates/{candidateId}; the caller
// enforces that the token owns candidateId.
func (h *HTTPHandlers) CandidateRoutes(r chi.Router) {
	r.Post("/tracks", h.SelectTrack)
	r.Get("/scores/{trackId}", h.Score)
}

// TestRoutes mounts under /api/tests.
func (h *HTTPHandlers) TestRoutes(r chi.Router) {
	r.Route("/{sessionId}", func(r chi.Router) {
		r.Use(h.requireSessionOwner)
		r.Get("/next", h.Next)
		r.Post("/responses", h.Respond)
		r.Post("/submit", h.Submit)
	})
}

type selectTrackRequest struct {
	TrackID question.Track `json:"trackId"`
}

// SelectTrack handles POST /api/candidates/{candidateId}/tracks
func (h *HTTPHandlers) SelectTrack(w http.ResponseWriter, r *http.Request) {
	var req selectTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	handle, err := h.svc.SelectTrack(r.Context(), chi.URLParam(r, "candidateId"), req.TrackID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusCreated, handle)
}

// Score handles GET /api/candidates/{candidateId}/scores/{trackId}
func (h *HTTPHandlers) Score(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Report(r.Context(), chi.URLParam(r, "candidateId"), question.Track(chi.URLParam(r, "trackId")))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, report)
}

// Next handles GET /api/tests/{sessionId}/next
func (h *HTTPHandlers) Next(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.NextQuestion(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, next)
}

// Respond handles POST /api/tests/{sessionId}/responses
func (h *HTTPHandlers) Respond(w http.ResponseWriter, r *http.Request) {
	var resp Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if resp.QuestionID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "questionId is required", "questionId")
		return
	}

	result, err := h.svc.SubmitResponse(r.Context(), chi.URLParam(r, "sessionId"), resp)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, result)
}

// Submit handles POST /api/tests/{sessionId}/submit
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Finalize(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, report)
}

// requireSessionOwner rejects tokens that do not belong to the session's
// candidate.
func (h *HTTPHandlers) requireSessionOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
			return
		}
		sess, err := h.svc.Session(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		if sess.CandidateID != claims.PrincipalID() {
			h.respondErr(w, r, apperr.Unauthorized("session belongs to another candidate"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHandlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == "" {
		l := logging.FromContext(r.Context(), h.logger)
		l.Error().Err(err).Str("component", "assessment").Str("path", r.URL.Path).Msg("assessment request failed")
	}
	httperrors.RespondAppError(w, r, err)
}
