package audit

import "time"

// Event types emitted by the platform.
const (
	EventSessionCreated          = "session.created"
	EventSessionQuestionAssigned = "session.question_assigned"
	EventSessionResponseRecorded = "session.response_recorded"
	EventSessionExpired          = "session.expired"
	EventSessionExhausted        = "session.exhausted"
	EventSessionScored           = "session.scored"
	EventCandidateCreated        = "candidate.created"
	EventCandidateShare          = "candidate.share"
	EventEmployerCreated         = "employer.created"
	EventJobUpserted             = "job.upserted"
	EventJobFilterRun            = "job.filter_run"
)

// Event is one audit trail entry.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"eventType"`
	ActorID   string            `json:"actorId,omitempty"`
	Payload   map[string]string `json:"payload"`
	Timestamp time.Time         `json:"timestamp"`
}

// Recorder accepts audit events. RecordEvent never blocks and never fails the
// caller.
type Recorder interface {
	RecordEvent(eventType, actorID string, payload map[string]string)
}

// Nop discards events.
type Nop struct{}

func (Nop) RecordEvent(string, string, map[string]string) {}
