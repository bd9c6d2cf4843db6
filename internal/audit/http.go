package audit

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
	httperrors "github.com/gokatarajesh/skill-assessment/pkg/http/errors"
)

const maxTraceLimit = 500

// TraceHandler serves GET /api/admin/trace?limit=N.
func TraceHandler(store EventStore, defaultLimit int, logger zerolog.Logger) http.HandlerFunc {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "limit must be a positive integer", "limit")
				return
			}
			limit = n
		}
		if limit > maxTraceLimit {
			limit = maxTraceLimit
		}

		events, err := store.RecentEvents(r.Context(), limit)
		if err != nil {
			l := logging.FromContext(r.Context(), logger)
			l.Error().Err(err).Str("component", "audit").Msg("load audit trail")
			httperrors.RespondAppError(w, r, err)
			return
		}
		envelope.JSON(w, r, http.StatusOK, events)
	}
}
