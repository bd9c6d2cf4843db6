package employer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	"github.com/gokatarajesh/skill-assessment/internal/question"
	ws "github.com/gokatarajesh/skill-assessment/pkg/http/ws"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateEmployer(ctx context.Context, e Employer) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepo) GetEmployer(ctx context.Context, id string) (Employer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Employer), args.Error(1)
}

func (m *mockRepo) GetJob(ctx context.Context, jobID string) (Job, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(Job), args.Error(1)
}

func (m *mockRepo) UpsertJob(ctx context.Context, job Job) error {
	return m.Called(ctx, job).Error(0)
}

type stubIssuer struct{}

func (stubIssuer) IssueToken(p jwt.Principal) (auth.TokenResponse, error) {
	return auth.TokenResponse{PrincipalID: p.ID, Role: p.Role, AccessToken: "token-" + p.ID, ExpiresIn: 3600}, nil
}

type captureRecorder struct {
	events []audit.Event
}

func (r *captureRecorder) RecordEvent(eventType, actorID string, payload map[string]string) {
	r.events = append(r.events, audit.Event{Type: eventType, ActorID: actorID, Payload: payload})
}

func newTestService(repo Repository, rec audit.Recorder) *Service {
	svc := NewService(repo, stubIssuer{}, rec, zerolog.Nop())
	svc.hash = func(p string) (string, error) {
		if len(p) < 8 {
			return "", auth.ErrPasswordTooShort
		}
		return "hashed:" + p, nil
	}
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateEmployer(t *testing.T) {
	repo := new(mockRepo)
	rec := &captureRecorder{}
	repo.On("CreateEmployer", mock.Anything, mock.MatchedBy(func(e Employer) bool {
		return e.Name == "Acme" && e.Email == "hr@acme.io" && e.PasswordHash == "hashed:longenough"
	})).Return(nil)

	e, tokens, err := newTestService(repo, rec).Create(context.Background(), CreateRequest{
		Name: " Acme ", Email: "HR@acme.io", Password: "longenough",
	})
	require.NoError(t, err)
	assert.Contains(t, e.ID, "emp_")
	assert.Equal(t, "token-"+e.ID, tokens.AccessToken)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventEmployerCreated, rec.events[0].Type)
	assert.Equal(t, "Acme", rec.events[0].Payload["name"])
	repo.AssertExpectations(t)
}

func TestCreateEmployerValidation(t *testing.T) {
	svc := newTestService(new(mockRepo), &captureRecorder{})

	_, _, err := svc.Create(context.Background(), CreateRequest{Email: "a@b.io", Password: "longenough"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, _, err = svc.Create(context.Background(), CreateRequest{Name: "A", Email: "not-an-email", Password: "longenough"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, _, err = svc.Create(context.Background(), CreateRequest{Name: "A", Email: "a@b.io", Password: "short"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestCreateEmployerDuplicateEmail(t *testing.T) {
	repo := new(mockRepo)
	repo.On("CreateEmployer", mock.Anything, mock.Anything).Return(apperr.Conflict("email already registered"))

	_, _, err := newTestService(repo, &captureRecorder{}).Create(context.Background(), CreateRequest{
		Name: "Acme", Email: "hr@acme.io", Password: "longenough",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpsertJobCreatesWithGeneratedID(t *testing.T) {
	repo := new(mockRepo)
	rec := &captureRecorder{}
	repo.On("GetEmployer", mock.Anything, "emp_1").Return(Employer{ID: "emp_1"}, nil)
	repo.On("UpsertJob", mock.Anything, mock.Anything).Return(nil)

	job, err := newTestService(repo, rec).UpsertJob(context.Background(), "emp_1", Job{
		RequiredTracks: []question.Track{question.TrackPythonCore, question.TrackPythonCore, question.TrackSQLCore},
		MinScores: map[question.Track]int{
			question.TrackPythonCore:     70,
			question.TrackSQLCore:        60,
			question.TrackJavaScriptCore: 90,
		},
	})
	require.NoError(t, err)
	assert.Contains(t, job.ID, "job_")
	assert.Equal(t, "emp_1", job.EmployerID)
	assert.Equal(t, []question.Track{question.TrackPythonCore, question.TrackSQLCore}, job.RequiredTracks)
	assert.Equal(t, map[question.Track]int{question.TrackPythonCore: 70, question.TrackSQLCore: 60}, job.MinScores)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventJobUpserted, rec.events[0].Type)
	assert.Equal(t, job.ID, rec.events[0].Payload["jobId"])
	assert.Equal(t, "emp_1", rec.events[0].Payload["employerId"])
}

func TestUpsertJobValidation(t *testing.T) {
	negative := -1
	tests := []struct {
		name string
		job  Job
	}{
		{"no tracks", Job{}},
		{"unknown track", Job{RequiredTracks: []question.Track{"cobol_v1"}, MinScores: map[question.Track]int{"cobol_v1": 10}}},
		{"missing threshold", Job{RequiredTracks: []question.Track{question.TrackSQLCore}}},
		{"threshold too high", Job{RequiredTracks: []question.Track{question.TrackSQLCore}, MinScores: map[question.Track]int{question.TrackSQLCore: 101}}},
		{"negative experience", Job{
			RequiredTracks:           []question.Track{question.TrackSQLCore},
			MinScores:                map[question.Track]int{question.TrackSQLCore: 50},
			PreferredExperienceYears: &negative,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			repo.On("GetEmployer", mock.Anything, "emp_1").Return(Employer{ID: "emp_1"}, nil)

			_, err := newTestService(repo, &captureRecorder{}).UpsertJob(context.Background(), "emp_1", tt.job)
			assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "got %v", err)
			repo.AssertNotCalled(t, "UpsertJob", mock.Anything, mock.Anything)
		})
	}
}

func TestUpsertJobOwnership(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetEmployer", mock.Anything, "emp_2").Return(Employer{ID: "emp_2"}, nil)
	repo.On("GetJob", mock.Anything, "job_1").Return(Job{ID: "job_1", EmployerID: "emp_1"}, nil)

	_, err := newTestService(repo, &captureRecorder{}).UpsertJob(context.Background(), "emp_2", Job{
		ID:             "job_1",
		RequiredTracks: []question.Track{question.TrackSQLCore},
		MinScores:      map[question.Track]int{question.TrackSQLCore: 50},
	})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	repo.AssertNotCalled(t, "UpsertJob", mock.Anything, mock.Anything)
}

func TestUpsertJobUnknownEmployer(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetEmployer", mock.Anything, "emp_x").Return(Employer{}, apperr.NotFound("employer not found"))

	_, err := newTestService(repo, &captureRecorder{}).UpsertJob(context.Background(), "emp_x", Job{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestJobHidesOtherEmployersJobs(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetJob", mock.Anything, "job_1").Return(Job{ID: "job_1", EmployerID: "emp_1"}, nil)
	svc := newTestService(repo, &captureRecorder{})

	job, err := svc.Job(context.Background(), "emp_1", "job_1")
	require.NoError(t, err)
	assert.Equal(t, "job_1", job.ID)

	_, err = svc.Job(context.Background(), "emp_2", "job_1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFeedSinkRoutesByEmployer(t *testing.T) {
	hub := ws.NewHub(zerolog.Nop())
	conn := ws.NewConnection(nil, zerolog.Nop())
	hub.Subscribe("emp_1", conn)
	sink := NewFeedSink(hub)

	require.NoError(t, sink.Write(context.Background(), audit.Event{
		Type:    audit.EventCandidateShare,
		ActorID: "cand_1",
		Payload: map[string]string{"employerId": "emp_1"},
	}))
	require.NoError(t, sink.Write(context.Background(), audit.Event{
		Type:    audit.EventCandidateShare,
		Payload: map[string]string{"employerId": "emp_2"},
	}))
	require.NoError(t, sink.Write(context.Background(), audit.Event{
		Type:    audit.EventSessionScored,
		Payload: map[string]string{"employerId": "emp_1"},
	}))

	require.Len(t, conn.Outbound(), 1)
	msg := <-conn.Outbound()
	assert.Equal(t, ws.TypeEvent, msg.Type)
	assert.Contains(t, string(msg.Payload), `"actorId":"cand_1"`)
}
