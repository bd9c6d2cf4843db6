package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

func (s *Store) QuestionsForTrackAndBand(ctx context.Context, track question.Track, band question.Band) ([]question.Question, error) {
	query := `SELECT body_json FROM questions WHERE track_id = $1 ORDER BY seq`
	args := []any{string(track)}
	if band != "" {
		query = `SELECT body_json FROM questions WHERE track_id = $1 AND difficulty = $2 ORDER BY seq`
		args = append(args, string(band))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := make([]question.Question, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q question.Question
		if err := decodeJSON(body, &q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (s *Store) QuestionByID(ctx context.Context, id string) (question.Question, error) {
	var body string
	if err := s.db.QueryRowContext(ctx, `SELECT body_json FROM questions WHERE id = $1`, id).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return question.Question{}, apperr.NotFound("question not found: %s", id)
		}
		return question.Question{}, fmt.Errorf("load question: %w", err)
	}
	var q question.Question
	if err := decodeJSON(body, &q); err != nil {
		return question.Question{}, err
	}
	return q, nil
}

// UpsertQuestions writes questions in one transaction. New records are
// appended after the current highest seq; existing ones keep their position.
func (s *Store) UpsertQuestions(ctx context.Context, questions []question.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM questions`).Scan(&next); err != nil {
			return fmt.Errorf("read question seq: %w", err)
		}
		for _, q := range questions {
			body, err := encodeJSON(q)
			if err != nil {
				return err
			}
			next++
			_, err = tx.ExecContext(ctx, `
				INSERT INTO questions (id, seq, track_id, difficulty, body_json)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					track_id = excluded.track_id,
					difficulty = excluded.difficulty,
					body_json = excluded.body_json`,
				q.ID, next, string(q.Track), string(q.Difficulty), body)
			if err != nil {
				return fmt.Errorf("upsert question %s: %w", q.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

func (s *Store) BankStats(ctx context.Context) (question.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, difficulty, COUNT(*) FROM questions GROUP BY track_id, difficulty`)
	if err != nil {
		return question.Stats{}, fmt.Errorf("query bank stats: %w", err)
	}
	defer rows.Close()

	stats := question.NewStats()
	for rows.Next() {
		var (
			track, band string
			n           int
		)
		if err := rows.Scan(&track, &band, &n); err != nil {
			return question.Stats{}, fmt.Errorf("scan bank stats: %w", err)
		}
		stats.Total += n
		stats.ByTrack[question.Track(track)] += n
		stats.ByDifficulty[question.Band(band)] += n
	}
	if err := rows.Err(); err != nil {
		return question.Stats{}, fmt.Errorf("iterate bank stats: %w", err)
	}
	return stats, nil
}
