package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/config"
	"github.com/gokatarajesh/skill-assessment/internal/store/memory"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
)

const bankYAML = `
- questionId: py_m1
  trackId: python_core_v1
  prompt: Which structure gives O(1) average lookup by key?
  questionType: mcq
  difficulty: medium
  subskill: data_structures
  tags: [hashing]
  options: [list, dict, tuple]
  answerKey: dict
- questionId: py_h1
  trackId: python_core_v1
  prompt: Return the first element of a sequence.
  questionType: coding
  difficulty: hard
  subskill: algorithms
  tags: [iteration]
`

type testClient struct {
	t      *testing.T
	server *httptest.Server
}

func (c testClient) do(method, path, token string, body any, headers ...string) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected envelope data, got %v", body)
	return d
}

func newTestApp(t *testing.T) (*Application, testClient) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "python.yaml"), []byte(bankYAML), 0o600))

	cfg := &config.App{
		Name:                    "skill-assessment-test",
		Env:                     "test",
		GracefulShutdownTimeout: time.Second,
		Storage:                 config.Storage{Backend: config.BackendMemory},
		Security:                config.Security{JWTSecret: "test-secret", TokenTTL: time.Hour, AdminAPIKey: "admin-key"},
		Assessment: config.Assessment{
			SessionDuration:   30 * time.Minute,
			EvaluationTimeout: time.Second,
			LockWait:          time.Second,
			LockTTL:           time.Second,
		},
		Matching: config.Matching{RankByScore: true, Workers: 2},
		ItemBank: config.ItemBank{Path: dir, SyncOnStart: true},
		Audit:    config.Audit{BufferSize: 64, TraceLimit: 50},
		CORS:     config.CORS{AllowedOrigins: []string{"*"}},
	}

	a, err := build(context.Background(), cfg, zerolog.Nop(), memory.New(100), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a.startBackgroundWorkers(ctx)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		a.bgWG.Wait()
	})
	return a, testClient{t: t, server: srv}
}

func TestEndToEndAssessmentAndMatching(t *testing.T) {
	_, c := newTestApp(t)

	// Employer and job.
	status, body := c.do(http.MethodPost, "/api/employers", "", map[string]string{
		"name": "Acme", "email": "hr@acme.io", "password": "employer-pass",
	})
	require.Equal(t, http.StatusCreated, status, body)
	emp := data(t, body)
	employerID, employerToken := emp["employerId"].(string), emp["accessToken"].(string)

	status, body = c.do(http.MethodPost, "/api/employers/"+employerID+"/jobs", employerToken, map[string]any{
		"jobId":          "job_backend",
		"requiredTracks": []string{"python_core_v1"},
		"minScores":      map[string]int{"python_core_v1": 60},
	})
	require.Equal(t, http.StatusOK, status, body)

	// Candidate registers, consents and takes the test.
	status, body = c.do(http.MethodPost, "/api/candidates", "", map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "candidate-pass",
		"attributes": map[string]string{"gender": "f", "city": "Pune"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	cand := data(t, body)
	candidateID, candidateToken := cand["candidateId"].(string), cand["accessToken"].(string)

	status, body = c.do(http.MethodGet, "/api/candidates/"+candidateID, candidateToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	attrs := data(t, body)["profile"].(map[string]any)["attributes"].(map[string]any)
	assert.NotContains(t, attrs, "gender")

	status, body = c.do(http.MethodPost, "/api/candidates/"+candidateID+"/share", candidateToken, map[string]string{"employerId": employerID})
	require.Equal(t, http.StatusOK, status, body)

	status, body = c.do(http.MethodPost, "/api/candidates/"+candidateID+"/tracks", candidateToken, map[string]string{"trackId": "python_core_v1"})
	require.Equal(t, http.StatusCreated, status, body)
	sessionID := data(t, body)["sessionId"].(string)
	testPath := "/api/tests/" + sessionID

	status, body = c.do(http.MethodGet, testPath+"/next", candidateToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	q := data(t, body)["question"].(map[string]any)
	assert.Equal(t, "py_m1", q["questionId"])
	assert.NotContains(t, q, "answerKey")

	status, body = c.do(http.MethodPost, testPath+"/responses", candidateToken, map[string]any{
		"questionId": "py_m1", "responseType": "mcq", "answer": "dict", "timeTakenSeconds": 20,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "hard", data(t, body)["nextBand"])

	status, body = c.do(http.MethodGet, testPath+"/next", candidateToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "py_h1", data(t, body)["question"].(map[string]any)["questionId"])

	status, body = c.do(http.MethodPost, testPath+"/responses", candidateToken, map[string]any{
		"questionId": "py_h1", "responseType": "coding", "code": "def first(xs):\n    for x in xs:\n        return x\n",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = c.do(http.MethodGet, testPath+"/next", candidateToken, nil)
	assert.Equal(t, http.StatusConflict, status, body)
	assert.Equal(t, "questions_exhausted", body["error"])

	status, body = c.do(http.MethodPost, testPath+"/submit", candidateToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	report := data(t, body)
	// algorithms 80, data_structures 100, code_quality 0
	assert.EqualValues(t, 72, report["overallScore"])
	assert.EqualValues(t, 75, report["percentile"])

	// Employer sees the candidate as eligible.
	status, body = c.do(http.MethodGet, "/api/employers/"+employerID+"/jobs/job_backend/eligible", employerToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	eligible := data(t, body)["eligibleCandidates"].([]any)
	require.Len(t, eligible, 1)
	first := eligible[0].(map[string]any)
	assert.Equal(t, candidateID, first["candidateId"])
	assert.EqualValues(t, 100, first["matchScore"])
	assert.Equal(t, "python_core_v1: 72/60", first["matchExplanation"])

	status, body = c.do(http.MethodGet, "/api/candidates/"+candidateID+"/matches", candidateToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	jobs := data(t, body)["recommendedJobs"].([]any)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].(map[string]any)["company"])

	// Login issues a fresh token.
	status, body = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"role": "candidate", "email": "ADA@example.com", "password": "candidate-pass",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, candidateID, data(t, body)["principalId"])
}

func TestRouteGuards(t *testing.T) {
	_, c := newTestApp(t)

	_, body := c.do(http.MethodPost, "/api/candidates", "", map[string]any{
		"name": "Bo", "email": "bo@example.com", "password": "candidate-pass",
	})
	cand := data(t, body)
	candidateID, candidateToken := cand["candidateId"].(string), cand["accessToken"].(string)

	_, body = c.do(http.MethodPost, "/api/candidates", "", map[string]any{
		"name": "Cy", "email": "cy@example.com", "password": "candidate-pass",
	})
	otherToken := data(t, body)["accessToken"].(string)

	status, _ := c.do(http.MethodGet, "/api/candidates/"+candidateID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/api/candidates/"+candidateID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodGet, "/api/employers/emp_x/jobs/job_1", candidateToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	_, body = c.do(http.MethodPost, "/api/candidates/"+candidateID+"/tracks", candidateToken, map[string]string{"trackId": "python_core_v1"})
	sessionID := data(t, body)["sessionId"].(string)
	status, _ = c.do(http.MethodGet, "/api/tests/"+sessionID+"/next", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodGet, "/api/tests/sess_missing/next", candidateToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Your test session could not be found. Please start a new test.", body["message"])

	status, _ = c.do(http.MethodGet, "/api/admin/item-bank-stats", "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodGet, "/api/admin/item-bank-stats", "", nil, auth.HeaderAdminKey, "admin-key")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, data(t, body)["total"])
}

func TestAdminTraceAndEnvelope(t *testing.T) {
	a, c := newTestApp(t)

	_, body := c.do(http.MethodPost, "/api/candidates", "", map[string]any{
		"name": "Di", "email": "di@example.com", "password": "candidate-pass",
	})
	traceID, _ := body["traceId"].(string)
	assert.Regexp(t, `^trace_[0-9a-f]+$`, traceID)

	require.Eventually(t, func() bool { return a.recorder.Pending() == 0 }, time.Second, 10*time.Millisecond)

	var events []any
	require.Eventually(t, func() bool {
		status, body := c.do(http.MethodGet, "/api/admin/trace?limit=10", "", nil, auth.HeaderAdminKey, "admin-key")
		if status != http.StatusOK {
			return false
		}
		events, _ = body["data"].([]any)
		return len(events) > 0
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "candidate.created", events[len(events)-1].(map[string]any)["eventType"])

	status, _ := c.do(http.MethodGet, "/api/admin/trace?limit=abc", "", nil, auth.HeaderAdminKey, "admin-key")
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := c.server.Client().Get(c.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(envelope.HeaderTraceID))

	status, body = c.do(http.MethodGet, "/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["pong"])
}
