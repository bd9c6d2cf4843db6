package matching

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/internal/question"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
	httperrors "github.com/gokatarajesh/skill-assessment/pkg/http/errors"
)

// HTTPHandlers exposes matching queries over REST.
type HTTPHandlers struct {
	engine *Engine
	logger zerolog.Logger
}

func NewHTTPHandlers(engine *Engine, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{engine: engine, logger: logger}
}

// Eligible handles GET /api/employers/{employerId}/jobs/{jobId}/eligible
func (h *HTTPHandlers) Eligible(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.EligibleCandidates(r.Context(), chi.URLParam(r, "employerId"), chi.URLParam(r, "jobId"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, list)
}

// CandidateReport handles GET /api/employers/{employerId}/candidates/{candidateId}/scores/{trackId}
func (h *HTTPHandlers) CandidateReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.CandidateReport(r.Context(),
		chi.URLParam(r, "employerId"),
		chi.URLParam(r, "candidateId"),
		question.Track(chi.URLParam(r, "trackId")),
	)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, report)
}

// Matches handles GET /api/candidates/{candidateId}/matches
func (h *HTTPHandlers) Matches(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.CandidateMatches(r.Context(), chi.URLParam(r, "candidateId"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	envelope.JSON(w, r, http.StatusOK, list)
}

func (h *HTTPHandlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == "" {
		l := logging.FromContext(r.Context(), h.logger)
		l.Error().Err(err).Str("component", "matching").Str("path", r.URL.Path).Msg("matching request failed")
	}
	httperrors.RespondAppError(w, r, err)
}
