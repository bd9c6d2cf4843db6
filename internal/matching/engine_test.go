package matching

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/assessment/scoring"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

const (
	python = question.TrackPythonCore
	sql    = question.TrackSQLCore
)

type fakeSources struct {
	candidates []candidate.Candidate
	employers  map[string]employer.Employer
	jobs       []employer.Job
	reports    map[string]int // candidateID/track -> overall
	reportErr  error
}

func reportKey(candidateID string, track question.Track) string {
	return candidateID + "/" + string(track)
}

func (f *fakeSources) GetCandidate(_ context.Context, id string) (candidate.Candidate, error) {
	for _, c := range f.candidates {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return candidate.Candidate{}, apperr.NotFound("candidate not found")
}

// CandidatesSharedWith deliberately returns everyone so the engine's own
// consent check is exercised.
func (f *fakeSources) CandidatesSharedWith(_ context.Context, _ string) ([]candidate.Candidate, error) {
	out := make([]candidate.Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (f *fakeSources) GetEmployer(_ context.Context, id string) (employer.Employer, error) {
	e, ok := f.employers[id]
	if !ok {
		return employer.Employer{}, apperr.NotFound("employer not found")
	}
	return e, nil
}

func (f *fakeSources) GetJob(_ context.Context, jobID string) (employer.Job, error) {
	for _, j := range f.jobs {
		if j.ID == jobID {
			return j.Clone(), nil
		}
	}
	return employer.Job{}, apperr.NotFound("job not found")
}

func (f *fakeSources) JobsForEmployers(_ context.Context, ids []string) ([]employer.Job, error) {
	var out []employer.Job
	for _, j := range f.jobs {
		for _, id := range ids {
			if j.EmployerID == id {
				out = append(out, j.Clone())
			}
		}
	}
	return out, nil
}

func (f *fakeSources) GetReport(_ context.Context, candidateID string, track question.Track) (scoring.Report, error) {
	if f.reportErr != nil {
		return scoring.Report{}, f.reportErr
	}
	score, ok := f.reports[reportKey(candidateID, track)]
	if !ok {
		return scoring.Report{}, apperr.NotFound("report not found")
	}
	return scoring.Report{CandidateID: candidateID, Track: track, OverallScore: score}, nil
}

type captureRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *captureRecorder) RecordEvent(eventType, actorID string, payload map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, audit.Event{Type: eventType, ActorID: actorID, Payload: payload})
}

func newFixture() *fakeSources {
	return &fakeSources{
		candidates: []candidate.Candidate{
			{ID: "cand_a", Profile: candidate.Profile{Name: "Ada"}, SharedEmployers: []string{"emp_x"}},
			{ID: "cand_b", Profile: candidate.Profile{Name: "Bo"}, SharedEmployers: []string{"emp_x", "emp_y"}},
			{ID: "cand_c", Profile: candidate.Profile{Name: "Cy"}},
		},
		employers: map[string]employer.Employer{
			"emp_x": {ID: "emp_x", Name: "Acme"},
			"emp_y": {ID: "emp_y", Name: "Globex"},
		},
		jobs: []employer.Job{
			{ID: "job_1", EmployerID: "emp_x", RequiredTracks: []question.Track{python}, MinScores: map[question.Track]int{python: 60}},
			{ID: "job_2", EmployerID: "emp_y", RequiredTracks: []question.Track{python, sql}, MinScores: map[question.Track]int{python: 50, sql: 50}},
		},
		reports: map[string]int{
			reportKey("cand_a", python): 66,
			reportKey("cand_b", python): 90,
			reportKey("cand_b", sql):    55,
			reportKey("cand_c", python): 100,
		},
	}
}

func TestScoreCapsContribution(t *testing.T) {
	job := employer.Job{RequiredTracks: []question.Track{python}, MinScores: map[question.Track]int{python: 80}}

	score, explanation := Score(job, map[question.Track]int{python: 100})
	assert.Equal(t, 100, score)
	assert.Equal(t, "python_core_v1: 100/80", explanation)
}

func TestScoreAveragesTracks(t *testing.T) {
	job := employer.Job{
		RequiredTracks: []question.Track{python, sql},
		MinScores:      map[question.Track]int{python: 80, sql: 50},
	}

	// python 80/80 -> 100, sql 55/50 -> 110; mean 105 capped to 100
	score, explanation := Score(job, map[question.Track]int{python: 80, sql: 55})
	assert.Equal(t, 100, score)
	assert.Equal(t, "python_core_v1: 80/80; sql_core_v1: 55/50", explanation)

	job.MinScores[python] = 90
	// python 80/90 -> 88 (truncated), sql 110; mean 99
	score, _ = Score(job, map[question.Track]int{python: 80, sql: 55})
	assert.Equal(t, 99, score)
}

func TestScoreZeroThreshold(t *testing.T) {
	job := employer.Job{RequiredTracks: []question.Track{python}, MinScores: map[question.Track]int{python: 0}}
	score, _ := Score(job, map[question.Track]int{python: 0})
	assert.Equal(t, 0, score)

	score, _ = Score(job, map[question.Track]int{python: 5})
	assert.Equal(t, 100, score)
}

func TestQualifies(t *testing.T) {
	job := employer.Job{
		RequiredTracks: []question.Track{python, sql},
		MinScores:      map[question.Track]int{python: 60},
	}
	assert.False(t, Qualifies(job, map[question.Track]int{python: 90, sql: 90}), "missing threshold disqualifies")

	job.MinScores[sql] = 40
	assert.True(t, Qualifies(job, map[question.Track]int{python: 60, sql: 40}), "thresholds are inclusive")
	assert.False(t, Qualifies(job, map[question.Track]int{python: 59, sql: 90}))
	assert.False(t, Qualifies(job, map[question.Track]int{python: 90}), "missing score disqualifies")
}

func TestEligibleCandidatesRespectsConsent(t *testing.T) {
	src := newFixture()
	rec := &captureRecorder{}
	engine := NewEngine(src, src, src, rec, Options{Workers: 2, RankByScore: true}, zerolog.Nop())

	list, err := engine.EligibleCandidates(context.Background(), "emp_x", "job_1")
	require.NoError(t, err)

	assert.Equal(t, "job_1", list.JobID)
	require.Len(t, list.EligibleCandidates, 2)
	assert.Equal(t, EligibleCandidate{
		CandidateID:      "cand_a",
		Name:             "Ada",
		TrackScores:      map[question.Track]int{python: 66},
		MatchScore:       100,
		MatchExplanation: "python_core_v1: 66/60",
	}, list.EligibleCandidates[0])
	assert.Equal(t, "cand_b", list.EligibleCandidates[1].CandidateID)
	// cand_c scores 100 but never shared with emp_x.
	for _, c := range list.EligibleCandidates {
		assert.NotEqual(t, "cand_c", c.CandidateID)
	}

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventJobFilterRun, rec.events[0].Type)
	assert.Equal(t, "2", rec.events[0].Payload["resultCount"])
	assert.Equal(t, "emp_x", rec.events[0].Payload["employerId"])
	assert.Equal(t, "job_1", rec.events[0].Payload["jobId"])
}

func TestEligibleCandidatesRanking(t *testing.T) {
	src := newFixture()
	src.jobs[0].RequiredTracks = []question.Track{python, sql}
	src.jobs[0].MinScores = map[question.Track]int{python: 50, sql: 0}
	src.candidates[0].SharedEmployers = []string{"emp_x"}
	src.candidates[2].SharedEmployers = []string{"emp_x"}
	src.reports[reportKey("cand_a", python)] = 50 // 100
	src.reports[reportKey("cand_a", sql)] = 0     // 0 -> mean 50
	src.reports[reportKey("cand_b", sql)] = 1     // python 120, sql 100 -> mean 110 capped
	src.reports[reportKey("cand_c", sql)] = 0     // python 120, sql 0 -> mean 60

	ranked := NewEngine(src, src, src, nil, Options{RankByScore: true}, zerolog.Nop())
	list, err := ranked.EligibleCandidates(context.Background(), "emp_x", "job_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cand_b", "cand_c", "cand_a"}, candidateIDs(list))
	assert.Equal(t, []int{100, 60, 50}, matchScores(list))

	unranked := NewEngine(src, src, src, nil, Options{Workers: 1}, zerolog.Nop())
	list, err = unranked.EligibleCandidates(context.Background(), "emp_x", "job_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cand_a", "cand_b", "cand_c"}, candidateIDs(list))
}

func TestEligibleCandidatesTiesKeepPoolOrder(t *testing.T) {
	src := newFixture()
	src.candidates[2].SharedEmployers = []string{"emp_x"}

	engine := NewEngine(src, src, src, nil, Options{Workers: 3, RankByScore: true}, zerolog.Nop())
	list, err := engine.EligibleCandidates(context.Background(), "emp_x", "job_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cand_a", "cand_b", "cand_c"}, candidateIDs(list))
	assert.Equal(t, []int{100, 100, 100}, matchScores(list))
}

func candidateIDs(list EligibleList) []string {
	ids := make([]string, 0, len(list.EligibleCandidates))
	for _, c := range list.EligibleCandidates {
		ids = append(ids, c.CandidateID)
	}
	return ids
}

func matchScores(list EligibleList) []int {
	scores := make([]int, 0, len(list.EligibleCandidates))
	for _, c := range list.EligibleCandidates {
		scores = append(scores, c.MatchScore)
	}
	return scores
}

func TestEligibleCandidatesEmpty(t *testing.T) {
	src := newFixture()
	src.jobs[0].MinScores[python] = 95

	engine := NewEngine(src, src, src, nil, Options{}, zerolog.Nop())
	list, err := engine.EligibleCandidates(context.Background(), "emp_x", "job_1")
	require.NoError(t, err)
	assert.NotNil(t, list.EligibleCandidates)
	assert.Empty(t, list.EligibleCandidates)
}

func TestEligibleCandidatesOwnership(t *testing.T) {
	src := newFixture()
	engine := NewEngine(src, src, src, nil, Options{}, zerolog.Nop())

	_, err := engine.EligibleCandidates(context.Background(), "emp_y", "job_1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = engine.EligibleCandidates(context.Background(), "emp_z", "job_1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = engine.EligibleCandidates(context.Background(), "emp_x", "job_missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEligibleCandidatesStoreFailure(t *testing.T) {
	src := newFixture()
	src.reportErr = errors.New("connection reset")
	engine := NewEngine(src, src, src, nil, Options{}, zerolog.Nop())

	_, err := engine.EligibleCandidates(context.Background(), "emp_x", "job_1")
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))
}

func TestCandidateMatches(t *testing.T) {
	src := newFixture()
	engine := NewEngine(src, src, src, nil, Options{RankByScore: true}, zerolog.Nop())

	list, err := engine.CandidateMatches(context.Background(), "cand_b")
	require.NoError(t, err)
	assert.Equal(t, "cand_b", list.CandidateID)
	require.Len(t, list.RecommendedJobs, 2)
	assert.Equal(t, RoleMatch{JobID: "job_1", Company: "Acme", MatchScore: 100}, list.RecommendedJobs[0])
	// python 90/50 -> 120, sql 55/50 -> 110; mean 115 capped
	assert.Equal(t, RoleMatch{JobID: "job_2", Company: "Globex", MatchScore: 100}, list.RecommendedJobs[1])

	list, err = engine.CandidateMatches(context.Background(), "cand_a")
	require.NoError(t, err)
	require.Len(t, list.RecommendedJobs, 1)
	assert.Equal(t, "job_1", list.RecommendedJobs[0].JobID)
}

func TestCandidateMatchesWithoutShares(t *testing.T) {
	src := newFixture()
	engine := NewEngine(src, src, src, nil, Options{}, zerolog.Nop())

	list, err := engine.CandidateMatches(context.Background(), "cand_c")
	require.NoError(t, err)
	assert.NotNil(t, list.RecommendedJobs)
	assert.Empty(t, list.RecommendedJobs)

	_, err = engine.CandidateMatches(context.Background(), "cand_missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCandidateReportRequiresConsent(t *testing.T) {
	src := newFixture()
	engine := NewEngine(src, src, src, nil, Options{}, zerolog.Nop())

	report, err := engine.CandidateReport(context.Background(), "emp_x", "cand_a", python)
	require.NoError(t, err)
	assert.Equal(t, 66, report.OverallScore)

	_, err = engine.CandidateReport(context.Background(), "emp_x", "cand_c", python)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Equal(t, "You don't have permission to access this information.", apperr.Friendly(err))

	_, err = engine.CandidateReport(context.Background(), "emp_x", "cand_a", sql)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
