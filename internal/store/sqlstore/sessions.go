package sqlstore

import (
	"context"
	"fmt"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/assessment"
	"github.com/gokatarajesh/skill-assessment/internal/assessment/scoring"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

const sessionColumns = `id, candidate_id, track_id, status, band, current_question_id,
	question_ids_json, responses_json, started_at, expires_at, version`

func (s *Store) CreateSession(ctx context.Context, sess assessment.Session) error {
	questionIDs, responses, err := encodeSessionLists(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sess.ID, sess.CandidateID, string(sess.Track), string(sess.Status), string(sess.Band), sess.CurrentQuestionID,
		questionIDs, responses, toNanos(sess.StartedAt), toNanos(sess.ExpiresAt), sess.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("session %s already exists", sess.ID)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (assessment.Session, error) {
	var (
		sess                   assessment.Session
		track, status, band    string
		questionIDs, responses string
		startedAt, expiresAt   int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id).Scan(
		&sess.ID, &sess.CandidateID, &track, &status, &band, &sess.CurrentQuestionID,
		&questionIDs, &responses, &startedAt, &expiresAt, &sess.Version)
	if err != nil {
		return assessment.Session{}, notFound(err, "session")
	}
	sess.Track = question.Track(track)
	sess.Status = assessment.Status(status)
	sess.Band = question.Band(band)
	sess.StartedAt = fromNanos(startedAt)
	sess.ExpiresAt = fromNanos(expiresAt)
	if err := decodeJSON(questionIDs, &sess.QuestionIDs); err != nil {
		return assessment.Session{}, err
	}
	if err := decodeJSON(responses, &sess.Responses); err != nil {
		return assessment.Session{}, err
	}
	if sess.QuestionIDs == nil {
		sess.QuestionIDs = []string{}
	}
	if sess.Responses == nil {
		sess.Responses = []assessment.Response{}
	}
	return sess, nil
}

// UpdateSession writes sess only when the stored version matches.
func (s *Store) UpdateSession(ctx context.Context, sess assessment.Session) (assessment.Session, error) {
	questionIDs, responses, err := encodeSessionLists(sess)
	if err != nil {
		return assessment.Session{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = $1, band = $2, current_question_id = $3,
			question_ids_json = $4, responses_json = $5, expires_at = $6,
			version = $7
		WHERE id = $8 AND version = $9`,
		string(sess.Status), string(sess.Band), sess.CurrentQuestionID,
		questionIDs, responses, toNanos(sess.ExpiresAt),
		sess.Version+1, sess.ID, sess.Version)
	if err != nil {
		return assessment.Session{}, fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return assessment.Session{}, fmt.Errorf("session rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.GetSession(ctx, sess.ID); err != nil {
			return assessment.Session{}, err
		}
		return assessment.Session{}, apperr.Conflict("session was modified concurrently")
	}
	sess = sess.Clone()
	sess.Version++
	return sess, nil
}

func encodeSessionLists(sess assessment.Session) (string, string, error) {
	ids := sess.QuestionIDs
	if ids == nil {
		ids = []string{}
	}
	responses := sess.Responses
	if responses == nil {
		responses = []assessment.Response{}
	}
	idsJSON, err := encodeJSON(ids)
	if err != nil {
		return "", "", err
	}
	responsesJSON, err := encodeJSON(responses)
	if err != nil {
		return "", "", err
	}
	return idsJSON, responsesJSON, nil
}

// --- reports ---

func (s *Store) UpsertReport(ctx context.Context, r scoring.Report) error {
	body, err := encodeJSON(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (candidate_id, track_id, overall_score, report_json, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (candidate_id, track_id) DO UPDATE SET
			overall_score = excluded.overall_score,
			report_json = excluded.report_json,
			completed_at = excluded.completed_at`,
		r.CandidateID, string(r.Track), r.OverallScore, body, toNanos(r.CompletedAt))
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, candidateID string, track question.Track) (scoring.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT report_json FROM reports WHERE candidate_id = $1 AND track_id = $2`,
		candidateID, string(track)).Scan(&body)
	if err != nil {
		return scoring.Report{}, notFound(err, "report")
	}
	var r scoring.Report
	if err := decodeJSON(body, &r); err != nil {
		return scoring.Report{}, err
	}
	return r, nil
}
