// Package memory keeps every record in process. Reads and writes go through
// deep copies so callers never share state with the store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/assessment"
	"github.com/gokatarajesh/skill-assessment/internal/assessment/scoring"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// DefaultEventCapacity bounds the in-memory audit ring.
const DefaultEventCapacity = 1000

type reportKey struct {
	candidateID string
	track       question.Track
}

// Store is the in-memory backend.
type Store struct {
	*question.MemoryBank

	mu             sync.RWMutex
	candidates     map[string]candidate.Candidate
	candidateOrder []string
	employers      map[string]employer.Employer
	jobs           map[string]employer.Job
	jobOrder       []string
	sessions       map[string]assessment.Session
	reports        map[reportKey]scoring.Report

	events      []audit.Event
	eventsStart int
	eventsCap   int
}

// New creates an empty store keeping the last eventCapacity audit events.
func New(eventCapacity int) *Store {
	if eventCapacity <= 0 {
		eventCapacity = DefaultEventCapacity
	}
	return &Store{
		MemoryBank: question.NewMemoryBank(),
		candidates: make(map[string]candidate.Candidate),
		employers:  make(map[string]employer.Employer),
		jobs:       make(map[string]employer.Job),
		sessions:   make(map[string]assessment.Session),
		reports:    make(map[reportKey]scoring.Report),
		eventsCap:  eventCapacity,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// --- candidates ---

func (s *Store) CreateCandidate(_ context.Context, c candidate.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[c.ID]; exists {
		return apperr.Conflict("candidate %s already exists", c.ID)
	}
	for _, existing := range s.candidates {
		if strings.EqualFold(existing.Profile.Email, c.Profile.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	s.candidates[c.ID] = c.Clone()
	s.candidateOrder = append(s.candidateOrder, c.ID)
	return nil
}

func (s *Store) GetCandidate(_ context.Context, id string) (candidate.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return candidate.Candidate{}, apperr.NotFound("candidate not found")
	}
	return c.Clone(), nil
}

func (s *Store) AddSharedEmployer(_ context.Context, candidateID, employerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[candidateID]
	if !ok {
		return false, apperr.NotFound("candidate not found")
	}
	if c.HasSharedWith(employerID) {
		return false, nil
	}
	c.SharedEmployers = append(c.SharedEmployers, employerID)
	s.candidates[candidateID] = c
	return true, nil
}

func (s *Store) AddSelectedTrack(_ context.Context, candidateID string, track question.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[candidateID]
	if !ok {
		return apperr.NotFound("candidate not found")
	}
	for _, t := range c.SelectedTracks {
		if t == track {
			return nil
		}
	}
	c.SelectedTracks = append(c.SelectedTracks, track)
	s.candidates[candidateID] = c
	return nil
}

func (s *Store) CandidatesSharedWith(_ context.Context, employerID string) ([]candidate.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]candidate.Candidate, 0)
	for _, id := range s.candidateOrder {
		c := s.candidates[id]
		if c.HasSharedWith(employerID) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// --- employers and jobs ---

func (s *Store) CreateEmployer(_ context.Context, e employer.Employer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employers[e.ID]; exists {
		return apperr.Conflict("employer %s already exists", e.ID)
	}
	for _, existing := range s.employers {
		if strings.EqualFold(existing.Email, e.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	s.employers[e.ID] = e
	return nil
}

func (s *Store) GetEmployer(_ context.Context, id string) (employer.Employer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employers[id]
	if !ok {
		return employer.Employer{}, apperr.NotFound("employer not found")
	}
	return e, nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (employer.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return employer.Job{}, apperr.NotFound("job not found")
	}
	return j.Clone(), nil
}

func (s *Store) UpsertJob(_ context.Context, job employer.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		s.jobOrder = append(s.jobOrder, job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *Store) JobsForEmployers(_ context.Context, employerIDs []string) ([]employer.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(employerIDs))
	for _, id := range employerIDs {
		wanted[id] = struct{}{}
	}
	out := make([]employer.Job, 0)
	for _, id := range s.jobOrder {
		j := s.jobs[id]
		if _, ok := wanted[j.EmployerID]; ok {
			out = append(out, j.Clone())
		}
	}
	return out, nil
}

// --- auth ---

func (s *Store) Credentials(_ context.Context, role jwt.Role, email string) (auth.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch role {
	case jwt.RoleCandidate:
		for _, c := range s.candidates {
			if strings.EqualFold(c.Profile.Email, email) {
				return auth.Credentials{ID: c.ID, PasswordHash: c.PasswordHash}, nil
			}
		}
		return auth.Credentials{}, apperr.NotFound("candidate not found")
	case jwt.RoleEmployer:
		for _, e := range s.employers {
			if strings.EqualFold(e.Email, email) {
				return auth.Credentials{ID: e.ID, PasswordHash: e.PasswordHash}, nil
			}
		}
		return auth.Credentials{}, apperr.NotFound("employer not found")
	}
	return auth.Credentials{}, apperr.InvalidInput("unknown role %q", role)
}

// --- sessions and reports ---

func (s *Store) CreateSession(_ context.Context, sess assessment.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return apperr.Conflict("session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (assessment.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return assessment.Session{}, apperr.NotFound("session not found")
	}
	return sess.Clone(), nil
}

func (s *Store) UpdateSession(_ context.Context, sess assessment.Session) (assessment.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[sess.ID]
	if !ok {
		return assessment.Session{}, apperr.NotFound("session not found")
	}
	if current.Version != sess.Version {
		return assessment.Session{}, apperr.Conflict("session was modified concurrently")
	}
	sess = sess.Clone()
	sess.Version++
	s.sessions[sess.ID] = sess
	return sess.Clone(), nil
}

func (s *Store) UpsertReport(_ context.Context, r scoring.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.Strengths = append([]string{}, r.Strengths...)
	r.Weaknesses = append([]string{}, r.Weaknesses...)
	s.reports[reportKey{r.CandidateID, r.Track}] = r
	return nil
}

func (s *Store) GetReport(_ context.Context, candidateID string, track question.Track) (scoring.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[reportKey{candidateID, track}]
	if !ok {
		return scoring.Report{}, apperr.NotFound("report not found")
	}
	r.Strengths = append([]string{}, r.Strengths...)
	r.Weaknesses = append([]string{}, r.Weaknesses...)
	return r, nil
}

// --- audit ---

// AppendEvent stores evt in a ring, overwriting the oldest entry when full.
func (s *Store) AppendEvent(_ context.Context, evt audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt.Payload = copyPayload(evt.Payload)
	if len(s.events) < s.eventsCap {
		s.events = append(s.events, evt)
		return nil
	}
	s.events[s.eventsStart] = evt
	s.eventsStart = (s.eventsStart + 1) % s.eventsCap
	return nil
}

func (s *Store) RecentEvents(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]audit.Event, 0, limit)
	for i := n - limit; i < n; i++ {
		evt := s.events[(s.eventsStart+i)%n]
		evt.Payload = copyPayload(evt.Payload)
		out = append(out, evt)
	}
	return out, nil
}

func copyPayload(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
