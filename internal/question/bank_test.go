package question

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
)

func sampleQuestions() []Question {
	return []Question{
		{ID: "py-m-2", Track: TrackPythonCore, Prompt: "p", Type: TypeMCQ, Difficulty: BandMedium, Subskill: SubskillAlgorithms, AnswerKey: "B", Tags: []string{"loops"}},
		{ID: "py-e-1", Track: TrackPythonCore, Prompt: "p", Type: TypeCoding, Difficulty: BandEasy, Subskill: SubskillCodeQuality, ReferenceSolution: "def f(): return 1"},
		{ID: "py-m-1", Track: TrackPythonCore, Prompt: "p", Type: TypeMCQ, Difficulty: BandMedium, Subskill: SubskillDataStructures, AnswerKey: "A"},
		{ID: "sql-m-1", Track: TrackSQLCore, Prompt: "p", Type: TypeMCQ, Difficulty: BandMedium, Subskill: SubskillDataStructures, AnswerKey: "C"},
	}
}

func TestMemoryBankPreservesLoadOrder(t *testing.T) {
	bank := NewMemoryBank(sampleQuestions()...)

	got, err := bank.QuestionsForTrackAndBand(context.Background(), TrackPythonCore, BandMedium)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "py-m-2", got[0].ID)
	assert.Equal(t, "py-m-1", got[1].ID)

	all, err := bank.QuestionsForTrackAndBand(context.Background(), TrackPythonCore, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryBankUpsertKeepsPosition(t *testing.T) {
	bank := NewMemoryBank(sampleQuestions()...)
	updated := sampleQuestions()[0]
	updated.Prompt = "updated"

	n, err := bank.UpsertQuestions(context.Background(), []Question{updated})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, bank.Len())

	got, _ := bank.QuestionsForTrackAndBand(context.Background(), TrackPythonCore, BandMedium)
	assert.Equal(t, "updated", got[0].Prompt)
}

func TestMemoryBankQuestionByID(t *testing.T) {
	bank := NewMemoryBank(sampleQuestions()...)

	q, err := bank.QuestionByID(context.Background(), "sql-m-1")
	require.NoError(t, err)
	assert.Equal(t, TrackSQLCore, q.Track)

	_, err = bank.QuestionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryBankReturnsCopies(t *testing.T) {
	bank := NewMemoryBank(sampleQuestions()...)

	q, _ := bank.QuestionByID(context.Background(), "py-m-2")
	q.Tags[0] = "mutated"

	again, _ := bank.QuestionByID(context.Background(), "py-m-2")
	assert.Equal(t, "loops", again.Tags[0])
}

func TestMemoryBankStats(t *testing.T) {
	bank := NewMemoryBank(sampleQuestions()...)

	stats, err := bank.BankStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByTrack[TrackPythonCore])
	assert.Equal(t, 1, stats.ByTrack[TrackSQLCore])
	assert.Equal(t, 0, stats.ByTrack[TrackJavaScriptCore])
	assert.Equal(t, 3, stats.ByDifficulty[BandMedium])
	assert.Equal(t, 0, stats.ByDifficulty[BandHard])
}

func TestPublicStripsSecrets(t *testing.T) {
	q := sampleQuestions()[1]
	q.AnswerKey = "secret"

	pub := q.Public()
	assert.Equal(t, q.ID, pub.ID)
	assert.NotNil(t, pub.Tags)
}

func TestBandLadder(t *testing.T) {
	assert.Equal(t, BandMedium, BandEasy.Harder())
	assert.Equal(t, BandHard, BandMedium.Harder())
	assert.Equal(t, BandHard, BandHard.Harder())
	assert.Equal(t, BandEasy, BandEasy.Easier())
	assert.Equal(t, BandEasy, BandMedium.Easier())
	assert.Equal(t, BandMedium, BandHard.Easier())
}

func TestValidate(t *testing.T) {
	q := sampleQuestions()[0]
	q.Normalize()
	assert.NoError(t, q.Validate())
	assert.Equal(t, DefaultTimeLimitSeconds, q.TimeLimitSeconds)

	bad := q
	bad.AnswerKey = ""
	assert.ErrorIs(t, bad.Validate(), apperr.ErrInvalidInput)

	bad = q
	bad.Track = "cobol_core_v1"
	assert.ErrorIs(t, bad.Validate(), apperr.ErrInvalidInput)

	bad = q
	bad.Type = "essay"
	assert.ErrorIs(t, bad.Validate(), apperr.ErrInvalidInput)
}
