package question

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/logging"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
	httperrors "github.com/gokatarajesh/skill-assessment/pkg/http/errors"
)

// StatsHandler serves GET /api/admin/item-bank-stats.
func StatsHandler(stats StatsProvider, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := stats.BankStats(r.Context())
		if err != nil {
			l := logging.FromContext(r.Context(), logger)
			l.Error().Err(err).Str("component", "question").Msg("load item bank stats")
			httperrors.RespondAppError(w, r, err)
			return
		}
		envelope.JSON(w, r, http.StatusOK, s)
	}
}
