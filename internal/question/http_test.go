package question

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/skill-assessment/internal/logging"
)

type failingStats struct{}

func (failingStats) BankStats(context.Context) (Stats, error) {
	return Stats{}, errors.New("connection reset")
}

func TestStatsHandlerLogsWithRequestLogger(t *testing.T) {
	var reqBuf, rootBuf bytes.Buffer
	reqLogger := zerolog.New(&reqBuf).With().Str("request_id", "req-7").Logger()

	h := StatsHandler(failingStats{}, zerolog.New(&rootBuf))
	req := httptest.NewRequest(http.MethodGet, "/api/admin/item-bank-stats", nil)
	req = req.WithContext(logging.IntoContext(req.Context(), reqLogger))
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Contains(t, reqBuf.String(), `"request_id":"req-7"`)
	assert.Contains(t, reqBuf.String(), "load item bank stats")
	assert.Empty(t, rootBuf.String())
}

func TestStatsHandler(t *testing.T) {
	bank := NewMemoryBank(Question{
		ID: "q1", Track: TrackSQLCore, Prompt: "p", Type: TypeMCQ,
		Difficulty: BandEasy, Subskill: SubskillAlgorithms, AnswerKey: "a",
	})
	rec := httptest.NewRecorder()
	StatsHandler(bank, zerolog.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/admin/item-bank-stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}
