package assessment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/assessment/scoring"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/evaluator"
	"github.com/gokatarajesh/skill-assessment/internal/ids"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// SessionRepository persists sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// UpdateSession stores s only if the persisted version still equals
	// s.Version and returns it with the version bumped. A stale version fails
	// with an apperr conflict.
	UpdateSession(ctx context.Context, s Session) (Session, error)
}

// ReportRepository persists score reports keyed by (candidate, track).
type ReportRepository interface {
	UpsertReport(ctx context.Context, r scoring.Report) error
	GetReport(ctx context.Context, candidateID string, track question.Track) (scoring.Report, error)
}

// CandidateTracks records which tracks a candidate has started.
type CandidateTracks interface {
	AddSelectedTrack(ctx context.Context, candidateID string, track question.Track) error
}

// ServiceOptions tunes the session state machine.
type ServiceOptions struct {
	SessionDuration time.Duration // default: 30m
	LockWait        time.Duration // default: 5s
	Clock           func() time.Time
}

// Service runs the adaptive test session state machine.
type Service struct {
	sessions   SessionRepository
	reports    ReportRepository
	candidates CandidateTracks
	bank       question.Bank
	evaluator  evaluator.Evaluator
	scorer     *scoring.Engine
	locker     Locker
	audit      audit.Recorder
	opts       ServiceOptions
	logger     zerolog.Logger
}

// NewService wires the state machine to its collaborators.
func NewService(
	sessions SessionRepository,
	reports ReportRepository,
	candidates CandidateTracks,
	bank question.Bank,
	eval evaluator.Evaluator,
	scorer *scoring.Engine,
	locker Locker,
	recorder audit.Recorder,
	opts ServiceOptions,
	logger zerolog.Logger,
) *Service {
	if opts.SessionDuration <= 0 {
		opts.SessionDuration = DefaultSessionDuration
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		sessions:   sessions,
		reports:    reports,
		candidates: candidates,
		bank:       bank,
		evaluator:  eval,
		scorer:     scorer,
		locker:     locker,
		audit:      recorder,
		opts:       opts,
		logger:     logger.With().Str("component", "assessment").Logger(),
	}
}

func (s *Service) now() time.Time { return s.opts.Clock().UTC() }

// SelectTrack starts a new session for the candidate on track.
func (s *Service) SelectTrack(ctx context.Context, candidateID string, track question.Track) (SessionHandle, error) {
	if !track.Valid() {
		return SessionHandle{}, apperr.InvalidInput("unknown track %q", track)
	}
	if err := s.candidates.AddSelectedTrack(ctx, candidateID, track); err != nil {
		return SessionHandle{}, fmt.Errorf("select track: %w", err)
	}

	now := s.now()
	sess := Session{
		ID:          ids.New("sess"),
		CandidateID: candidateID,
		Track:       track,
		Status:      StatusInProgress,
		Band:        question.BandMedium,
		QuestionIDs: []string{},
		Responses:   []Response{},
		StartedAt:   now,
		ExpiresAt:   now.Add(s.opts.SessionDuration),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return SessionHandle{}, fmt.Errorf("create session: %w", err)
	}

	sessionsStarted.WithLabelValues(string(track)).Inc()
	s.audit.RecordEvent(audit.EventSessionCreated, candidateID, map[string]string{
		"sessionId": sess.ID,
		"trackId":   string(track),
	})
	s.logger.Info().Str("session_id", sess.ID).Str("candidate_id", candidateID).Str("track", string(track)).Msg("session created")

	return SessionHandle{SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// Session returns the stored session without mutating it.
func (s *Service) Session(ctx context.Context, sessionID string) (Session, error) {
	return s.sessions.GetSession(ctx, sessionID)
}

// NextQuestion serves the pending question, or selects and records a new one.
func (s *Service) NextQuestion(ctx context.Context, sessionID string) (NextQuestion, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return NextQuestion{}, err
	}
	defer unlock()

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return NextQuestion{}, err
	}
	switch sess.Status {
	case StatusInProgress, StatusResponsesComplete:
	default:
		return NextQuestion{}, inactiveError(sess.Status)
	}

	now := s.now()
	if err := s.expireIfElapsed(ctx, &sess, now); err != nil {
		return NextQuestion{}, err
	}
	if sess.Status == StatusResponsesComplete {
		return NextQuestion{}, errExhausted()
	}

	if sess.CurrentQuestionID != "" {
		q, err := s.bank.QuestionByID(ctx, sess.CurrentQuestionID)
		if err != nil {
			return NextQuestion{}, err
		}
		return NextQuestion{Question: q.Public(), TimeRemaining: sess.TimeRemaining(now), Band: sess.Band}, nil
	}

	q, band, found, err := s.selectQuestion(ctx, sess)
	if err != nil {
		return NextQuestion{}, fmt.Errorf("select question: %w", err)
	}
	if !found {
		sess.Status = StatusResponsesComplete
		if _, err := s.sessions.UpdateSession(ctx, sess); err != nil {
			return NextQuestion{}, fmt.Errorf("mark session complete: %w", err)
		}
		s.audit.RecordEvent(audit.EventSessionExhausted, sess.CandidateID, map[string]string{
			"sessionId": sess.ID,
			"asked":     strconv.Itoa(len(sess.QuestionIDs)),
		})
		return NextQuestion{}, errExhausted()
	}

	sess.Band = band
	sess.CurrentQuestionID = q.ID
	sess.QuestionIDs = append(sess.QuestionIDs, q.ID)
	if _, err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return NextQuestion{}, fmt.Errorf("assign question: %w", err)
	}

	questionsServed.WithLabelValues(string(sess.Track), string(band)).Inc()
	s.audit.RecordEvent(audit.EventSessionQuestionAssigned, sess.CandidateID, map[string]string{
		"sessionId":  sess.ID,
		"questionId": q.ID,
		"band":       string(band),
	})

	return NextQuestion{Question: q.Public(), TimeRemaining: sess.TimeRemaining(now), Band: sess.Band}, nil
}

// selectQuestion picks the first unasked question in the current band, then
// probes every band from easiest to hardest.
func (s *Service) selectQuestion(ctx context.Context, sess Session) (question.Question, question.Band, bool, error) {
	firstUnasked := func(band question.Band) (question.Question, bool, error) {
		pool, err := s.bank.QuestionsForTrackAndBand(ctx, sess.Track, band)
		if err != nil {
			return question.Question{}, false, err
		}
		for _, q := range pool {
			if !sess.hasAsked(q.ID) {
				return q, true, nil
			}
		}
		return question.Question{}, false, nil
	}

	if q, ok, err := firstUnasked(sess.Band); err != nil || ok {
		return q, sess.Band, ok, err
	}
	for _, band := range question.Bands {
		if band == sess.Band {
			continue
		}
		q, ok, err := firstUnasked(band)
		if err != nil {
			return question.Question{}, "", false, err
		}
		if ok {
			return q, band, true, nil
		}
	}
	return question.Question{}, "", false, nil
}

// SubmitResponse records the answer to the pending question and moves the band.
func (s *Service) SubmitResponse(ctx context.Context, sessionID string, resp Response) (SubmitResult, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	defer unlock()

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	switch sess.Status {
	case StatusInProgress:
	case StatusResponsesComplete:
		return SubmitResult{}, apperr.InvalidState("question mismatch: no question is pending")
	default:
		return SubmitResult{}, inactiveError(sess.Status)
	}

	now := s.now()
	if err := s.expireIfElapsed(ctx, &sess, now); err != nil {
		return SubmitResult{}, err
	}

	if sess.CurrentQuestionID == "" || resp.QuestionID != sess.CurrentQuestionID {
		return SubmitResult{}, apperr.InvalidState("question mismatch: %q is not the pending question", resp.QuestionID)
	}

	q, err := s.bank.QuestionByID(ctx, resp.QuestionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if resp.Kind == "" {
		resp.Kind = string(q.Type)
	}

	verdict := s.evaluate(ctx, q, resp)

	sess.Responses = append(sess.Responses, resp)
	sess.CurrentQuestionID = ""
	sess.Band = NextBand(sess.Band, verdict.Correct)
	if _, err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return SubmitResult{}, fmt.Errorf("record response: %w", err)
	}

	responsesRecorded.WithLabelValues(string(q.Type), strconv.FormatBool(verdict.Correct)).Inc()
	s.audit.RecordEvent(audit.EventSessionResponseRecorded, sess.CandidateID, map[string]string{
		"sessionId":  sess.ID,
		"questionId": resp.QuestionID,
		"correct":    strconv.FormatBool(verdict.Correct),
		"timedOut":   strconv.FormatBool(verdict.TimedOut),
		"nextBand":   string(sess.Band),
	})
	s.logger.Debug().
		Str("session_id", sess.ID).
		Str("question_id", resp.QuestionID).
		Bool("correct", verdict.Correct).
		Str("next_band", string(sess.Band)).
		Msg("response recorded")

	return SubmitResult{Status: "recorded", NextBand: sess.Band}, nil
}

// Finalize submits the session and stores its score report. It is the only
// transition into submitted, so a second call fails.
func (s *Service) Finalize(ctx context.Context, sessionID string) (scoring.Report, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return scoring.Report{}, err
	}
	defer unlock()

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return scoring.Report{}, err
	}
	switch sess.Status {
	case StatusInProgress, StatusResponsesComplete:
	default:
		finalizeResults.WithLabelValues("rejected").Inc()
		return scoring.Report{}, inactiveError(sess.Status)
	}

	now := s.now()
	if err := s.expireIfElapsed(ctx, &sess, now); err != nil {
		finalizeResults.WithLabelValues("expired").Inc()
		return scoring.Report{}, err
	}

	report := s.buildReport(ctx, sess, now)

	// The report goes first: a failed status write leaves the session
	// retryable and the retry overwrites the same (candidate, track) report.
	if err := s.reports.UpsertReport(ctx, report); err != nil {
		finalizeResults.WithLabelValues("error").Inc()
		return scoring.Report{}, fmt.Errorf("store report: %w", err)
	}
	sess.Status = StatusSubmitted
	if _, err := s.sessions.UpdateSession(ctx, sess); err != nil {
		finalizeResults.WithLabelValues("error").Inc()
		return scoring.Report{}, fmt.Errorf("submit session: %w", err)
	}

	finalizeResults.WithLabelValues("scored").Inc()
	overallScores.WithLabelValues(string(sess.Track)).Observe(float64(report.OverallScore))
	s.audit.RecordEvent(audit.EventSessionScored, sess.CandidateID, map[string]string{
		"sessionId":  sess.ID,
		"trackId":    string(sess.Track),
		"overall":    strconv.Itoa(report.OverallScore),
		"percentile": strconv.Itoa(report.Percentile),
	})
	s.logger.Info().
		Str("session_id", sess.ID).
		Str("candidate_id", sess.CandidateID).
		Int("overall", report.OverallScore).
		Int("percentile", report.Percentile).
		Msg("session scored")

	return report, nil
}

// Report returns the stored report for a candidate and track.
func (s *Service) Report(ctx context.Context, candidateID string, track question.Track) (scoring.Report, error) {
	report, err := s.reports.GetReport(ctx, candidateID, track)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return scoring.Report{}, apperr.NotFound("score not found for track %s", track)
		}
		return scoring.Report{}, err
	}
	return report, nil
}

// buildReport evaluates every response independently. Responses whose
// question left the bank are skipped.
func (s *Service) buildReport(ctx context.Context, sess Session, now time.Time) scoring.Report {
	items := make([]scoring.Item, 0, len(sess.Responses))
	for _, resp := range sess.Responses {
		q, err := s.bank.QuestionByID(ctx, resp.QuestionID)
		if err != nil {
			skippedResponses.Inc()
			s.logger.Warn().Err(err).Str("session_id", sess.ID).Str("question_id", resp.QuestionID).Msg("response skipped during scoring")
			continue
		}
		verdict := s.evaluate(ctx, q, resp)
		items = append(items, scoring.Item{Subskill: q.Subskill, Tags: q.Tags, Score: verdict.Score})
	}

	res := s.scorer.Score(items)
	return scoring.Report{
		CandidateID:  sess.CandidateID,
		Track:        sess.Track,
		OverallScore: res.OverallScore,
		Subscores:    res.Subscores,
		Percentile:   res.Percentile,
		Strengths:    res.Strengths,
		Weaknesses:   res.Weaknesses,
		CompletedAt:  now,
	}
}

// evaluate never fails the caller: evaluator errors count as an incorrect
// answer with no score.
func (s *Service) evaluate(ctx context.Context, q question.Question, resp Response) evaluator.Verdict {
	verdict, err := s.evaluator.Evaluate(ctx, q, evaluator.Submission{Answer: resp.Answer, Code: resp.Code})
	if err != nil {
		s.logger.Warn().Err(err).Str("question_id", q.ID).Msg("evaluation failed")
		return evaluator.Verdict{}
	}
	return verdict
}

// expireIfElapsed moves a live session past its deadline to expired.
func (s *Service) expireIfElapsed(ctx context.Context, sess *Session, now time.Time) error {
	if now.Before(sess.ExpiresAt) {
		return nil
	}
	sess.Status = StatusExpired
	if _, err := s.sessions.UpdateSession(ctx, *sess); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	sessionsExpired.WithLabelValues(string(sess.Track)).Inc()
	s.audit.RecordEvent(audit.EventSessionExpired, sess.CandidateID, map[string]string{"sessionId": sess.ID})
	return apperr.Expired("session expired")
}

func (s *Service) lock(ctx context.Context, sessionID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockWait)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apperr.Error{Kind: apperr.KindConflict, Message: "session is busy, please retry", Err: err}
	}
	return unlock, nil
}

func errExhausted() error {
	return apperr.Exhausted("no remaining questions; please submit the test")
}

func inactiveError(status Status) error {
	switch status {
	case StatusExpired:
		return apperr.Expired("session expired")
	case StatusSubmitted:
		return apperr.InvalidState("session already finalized")
	}
	return apperr.InvalidState("session is not active (status %s)", status)
}
