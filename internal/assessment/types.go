package assessment

import (
	"time"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Status is a session lifecycle state.
type Status string

const (
	StatusInProgress        Status = "in_progress"
	StatusResponsesComplete Status = "responses_complete"
	StatusExpired           Status = "expired"
	StatusSubmitted         Status = "submitted"
)

// IsTerminal reports whether no further mutation is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusSubmitted
}

// DefaultSessionDuration is how long a candidate has to finish a test.
const DefaultSessionDuration = 30 * time.Minute

// Session is one candidate's attempt at a track.
type Session struct {
	ID                string         `json:"sessionId"`
	CandidateID       string         `json:"candidateId"`
	Track             question.Track `json:"trackId"`
	Status            Status         `json:"status"`
	Band              question.Band  `json:"currentBand"`
	CurrentQuestionID string         `json:"currentQuestionId,omitempty"`
	QuestionIDs       []string       `json:"questionIds"`
	Responses         []Response     `json:"responses"`
	StartedAt         time.Time      `json:"startedAt"`
	ExpiresAt         time.Time      `json:"expiresAt"`
	// Version increments on every persisted change and guards conditional updates.
	Version int64 `json:"version"`
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	s.QuestionIDs = append([]string{}, s.QuestionIDs...)
	s.Responses = append([]Response{}, s.Responses...)
	return s
}

func (s Session) hasAsked(id string) bool {
	for _, q := range s.QuestionIDs {
		if q == id {
			return true
		}
	}
	return false
}

// TimeRemaining in whole seconds, never negative.
func (s Session) TimeRemaining(now time.Time) int {
	remaining := int(s.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Response is a candidate's answer to one question.
type Response struct {
	QuestionID       string `json:"questionId"`
	Kind             string `json:"responseType"`
	Answer           string `json:"answer,omitempty"`
	Code             string `json:"code,omitempty"`
	TimeTakenSeconds int    `json:"timeTakenSeconds"`
	CopiedCharacters int    `json:"copiedCharacters"`
}

// SessionHandle is returned by SelectTrack.
type SessionHandle struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NextQuestion is the sanitized question currently pending for a session.
type NextQuestion struct {
	Question      question.Public `json:"question"`
	TimeRemaining int             `json:"timeRemaining"`
	Band          question.Band   `json:"band"`
}

// SubmitResult acknowledges a recorded response.
type SubmitResult struct {
	Status   string        `json:"status"`
	NextBand question.Band `json:"nextBand"`
}
