package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/auth"
	"github.com/gokatarajesh/skill-assessment/internal/auth/jwt"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

func (s *Store) CreateCandidate(ctx context.Context, c candidate.Candidate) error {
	profile, err := encodeJSON(c.Profile)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO candidates (id, email, name, profile_json, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, strings.ToLower(c.Profile.Email), c.Profile.Name, profile, c.PasswordHash, toNanos(c.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("email already registered")
			}
			return fmt.Errorf("insert candidate: %w", err)
		}
		for i, track := range c.SelectedTracks {
			if err := insertTrack(ctx, tx, c.ID, track, toNanos(c.CreatedAt)+int64(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetCandidate(ctx context.Context, id string) (candidate.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile_json, password_hash, created_at FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		return candidate.Candidate{}, notFound(err, "candidate")
	}
	if err := s.loadCandidateLists(ctx, &c); err != nil {
		return candidate.Candidate{}, err
	}
	return c, nil
}

func (s *Store) AddSharedEmployer(ctx context.Context, candidateID, employerID string) (bool, error) {
	var added bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM candidates WHERE id = $1`, candidateID, "candidate"); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO candidate_shares (candidate_id, employer_id, shared_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (candidate_id, employer_id) DO NOTHING`,
			candidateID, employerID, nowNanos())
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("share rows affected: %w", err)
		}
		added = n > 0
		return nil
	})
	return added, err
}

func (s *Store) AddSelectedTrack(ctx context.Context, candidateID string, track question.Track) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM candidates WHERE id = $1`, candidateID, "candidate"); err != nil {
			return err
		}
		return insertTrack(ctx, tx, candidateID, track, nowNanos())
	})
}

func (s *Store) CandidatesSharedWith(ctx context.Context, employerID string) ([]candidate.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.profile_json, c.password_hash, c.created_at
		FROM candidates c
		JOIN candidate_shares cs ON cs.candidate_id = c.id
		WHERE cs.employer_id = $1
		ORDER BY c.created_at, c.id`, employerID)
	if err != nil {
		return nil, fmt.Errorf("query shared candidates: %w", err)
	}
	defer rows.Close()

	out := make([]candidate.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	rows.Close()

	for i := range out {
		if err := s.loadCandidateLists(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadCandidateLists(ctx context.Context, c *candidate.Candidate) error {
	tracks, err := s.queryStrings(ctx, `
		SELECT track_id FROM candidate_tracks WHERE candidate_id = $1 ORDER BY added_at, track_id`, c.ID)
	if err != nil {
		return fmt.Errorf("load selected tracks: %w", err)
	}
	c.SelectedTracks = make([]question.Track, 0, len(tracks))
	for _, t := range tracks {
		c.SelectedTracks = append(c.SelectedTracks, question.Track(t))
	}

	c.SharedEmployers, err = s.queryStrings(ctx, `
		SELECT employer_id FROM candidate_shares WHERE candidate_id = $1 ORDER BY shared_at, employer_id`, c.ID)
	if err != nil {
		return fmt.Errorf("load shares: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (candidate.Candidate, error) {
	var (
		c       candidate.Candidate
		profile string
		created int64
	)
	if err := row.Scan(&c.ID, &profile, &c.PasswordHash, &created); err != nil {
		return candidate.Candidate{}, err
	}
	if err := decodeJSON(profile, &c.Profile); err != nil {
		return candidate.Candidate{}, err
	}
	c.CreatedAt = fromNanos(created)
	return c, nil
}

func insertTrack(ctx context.Context, tx *sql.Tx, candidateID string, track question.Track, at int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO candidate_tracks (candidate_id, track_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (candidate_id, track_id) DO NOTHING`,
		candidateID, string(track), at)
	if err != nil {
		return fmt.Errorf("insert selected track: %w", err)
	}
	return nil
}

func requireRow(ctx context.Context, tx *sql.Tx, query, id, what string) error {
	var one int
	if err := tx.QueryRowContext(ctx, query, id).Scan(&one); err != nil {
		return notFound(err, what)
	}
	return nil
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- employers ---

func (s *Store) CreateEmployer(ctx context.Context, e employer.Employer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employers (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Name, strings.ToLower(e.Email), e.PasswordHash, toNanos(e.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email already registered")
		}
		return fmt.Errorf("insert employer: %w", err)
	}
	return nil
}

func (s *Store) GetEmployer(ctx context.Context, id string) (employer.Employer, error) {
	var (
		e       employer.Employer
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at FROM employers WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &created)
	if err != nil {
		return employer.Employer{}, notFound(err, "employer")
	}
	e.CreatedAt = fromNanos(created)
	return e, nil
}

// --- credentials ---

func (s *Store) Credentials(ctx context.Context, role jwt.Role, email string) (auth.Credentials, error) {
	var query, what string
	switch role {
	case jwt.RoleCandidate:
		query, what = `SELECT id, password_hash FROM candidates WHERE email = $1`, "candidate"
	case jwt.RoleEmployer:
		query, what = `SELECT id, password_hash FROM employers WHERE email = $1`, "employer"
	default:
		return auth.Credentials{}, apperr.InvalidInput("unknown role %q", role)
	}

	var creds auth.Credentials
	if err := s.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(&creds.ID, &creds.PasswordHash); err != nil {
		return auth.Credentials{}, notFound(err, what)
	}
	return creds, nil
}
