package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gokatarajesh/skill-assessment/internal/employer"
)

const jobColumns = `id, employer_id, required_tracks_json, min_scores_json, preferred_experience_years, updated_at`

func (s *Store) GetJob(ctx context.Context, jobID string) (employer.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if err != nil {
		return employer.Job{}, notFound(err, "job")
	}
	return job, nil
}

// UpsertJob inserts or replaces a job. New jobs get the next seq so listings
// keep creation order across updates.
func (s *Store) UpsertJob(ctx context.Context, job employer.Job) error {
	tracks, err := encodeJSON(job.RequiredTracks)
	if err != nil {
		return err
	}
	scores, err := encodeJSON(job.MinScores)
	if err != nil {
		return err
	}
	var years sql.NullInt64
	if job.PreferredExperienceYears != nil {
		years = sql.NullInt64{Int64: int64(*job.PreferredExperienceYears), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`, seq)
		VALUES ($1, $2, $3, $4, $5, $6, (SELECT COALESCE(MAX(seq), 0) + 1 FROM jobs))
		ON CONFLICT (id) DO UPDATE SET
			employer_id = excluded.employer_id,
			required_tracks_json = excluded.required_tracks_json,
			min_scores_json = excluded.min_scores_json,
			preferred_experience_years = excluded.preferred_experience_years,
			updated_at = excluded.updated_at`,
		job.ID, job.EmployerID, tracks, scores, years, toNanos(job.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

func (s *Store) JobsForEmployers(ctx context.Context, employerIDs []string) ([]employer.Job, error) {
	out := make([]employer.Job, 0)
	if len(employerIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(employerIDs))
	args := make([]any, len(employerIDs))
	for i, id := range employerIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE employer_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY seq, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func scanJob(row rowScanner) (employer.Job, error) {
	var (
		job     employer.Job
		tracks  string
		scores  string
		years   sql.NullInt64
		updated int64
	)
	if err := row.Scan(&job.ID, &job.EmployerID, &tracks, &scores, &years, &updated); err != nil {
		return employer.Job{}, err
	}
	if err := decodeJSON(tracks, &job.RequiredTracks); err != nil {
		return employer.Job{}, err
	}
	if err := decodeJSON(scores, &job.MinScores); err != nil {
		return employer.Job{}, err
	}
	if years.Valid {
		y := int(years.Int64)
		job.PreferredExperienceYears = &y
	}
	job.UpdatedAt = fromNanos(updated)
	return job, nil
}
