package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/assessment/scoring"
	"github.com/gokatarajesh/skill-assessment/internal/audit"
	"github.com/gokatarajesh/skill-assessment/internal/candidate"
	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// CandidateSource lists candidates.
type CandidateSource interface {
	GetCandidate(ctx context.Context, id string) (candidate.Candidate, error)
	// CandidatesSharedWith returns candidates whose share list contains
	// employerID, in registration order.
	CandidatesSharedWith(ctx context.Context, employerID string) ([]candidate.Candidate, error)
}

// JobSource reads employers and their jobs.
type JobSource interface {
	GetEmployer(ctx context.Context, id string) (employer.Employer, error)
	GetJob(ctx context.Context, jobID string) (employer.Job, error)
	// JobsForEmployers returns every job owned by the given employers.
	JobsForEmployers(ctx context.Context, employerIDs []string) ([]employer.Job, error)
}

// ReportSource reads stored score reports.
type ReportSource interface {
	GetReport(ctx context.Context, candidateID string, track question.Track) (scoring.Report, error)
}

// Options tunes the engine.
type Options struct {
	Workers     int  // default: 8
	RankByScore bool // stable sort by match score, highest first
}

// EligibleCandidate is one qualifying candidate for a job.
type EligibleCandidate struct {
	CandidateID      string                 `json:"candidateId"`
	Name             string                 `json:"name"`
	TrackScores      map[question.Track]int `json:"trackScores"`
	MatchScore       int                    `json:"matchScore"`
	MatchExplanation string                 `json:"matchExplanation"`
}

// EligibleList is the result of an eligibility run.
type EligibleList struct {
	JobID              string              `json:"jobId"`
	EligibleCandidates []EligibleCandidate `json:"eligibleCandidates"`
}

// RoleMatch is one job a candidate qualifies for.
type RoleMatch struct {
	JobID      string `json:"jobId"`
	Company    string `json:"company"`
	MatchScore int    `json:"matchScore"`
}

// RoleMatchList is the result of a candidate match run.
type RoleMatchList struct {
	CandidateID     string      `json:"candidateId"`
	RecommendedJobs []RoleMatch `json:"recommendedJobs"`
}

// Engine filters and ranks consenting candidates against job requirements.
type Engine struct {
	candidates CandidateSource
	jobs       JobSource
	reports    ReportSource
	audit      audit.Recorder
	opts       Options
	logger     zerolog.Logger
}

func NewEngine(candidates CandidateSource, jobs JobSource, reports ReportSource, recorder audit.Recorder, opts Options, logger zerolog.Logger) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Engine{
		candidates: candidates,
		jobs:       jobs,
		reports:    reports,
		audit:      recorder,
		opts:       opts,
		logger:     logger.With().Str("component", "matching").Logger(),
	}
}

// EligibleCandidates returns the candidates who shared with employerID and
// meet every threshold of jobID.
func (e *Engine) EligibleCandidates(ctx context.Context, employerID, jobID string) (EligibleList, error) {
	if _, err := e.jobs.GetEmployer(ctx, employerID); err != nil {
		return EligibleList{}, err
	}
	job, err := e.jobs.GetJob(ctx, jobID)
	if err != nil {
		return EligibleList{}, err
	}
	if job.EmployerID != employerID {
		return EligibleList{}, apperr.NotFound("job not found")
	}

	pool, err := e.candidates.CandidatesSharedWith(ctx, employerID)
	if err != nil {
		return EligibleList{}, fmt.Errorf("load candidate pool: %w", err)
	}

	results := make([]*EligibleCandidate, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, c := range pool {
		// Consent is re-checked here rather than trusted from the query.
		if !c.HasSharedWith(employerID) {
			continue
		}
		i, c := i, c
		g.Go(func() error {
			scores, ok, err := e.trackScores(gctx, c.ID, job)
			if err != nil || !ok {
				return err
			}
			match, explanation := Score(job, scores)
			results[i] = &EligibleCandidate{
				CandidateID:      c.ID,
				Name:             c.Profile.Name,
				TrackScores:      scores,
				MatchScore:       match,
				MatchExplanation: explanation,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EligibleList{}, fmt.Errorf("evaluate candidates: %w", err)
	}

	eligible := make([]EligibleCandidate, 0, len(pool))
	for _, r := range results {
		if r != nil {
			eligible = append(eligible, *r)
		}
	}
	if e.opts.RankByScore {
		sort.SliceStable(eligible, func(a, b int) bool {
			return eligible[a].MatchScore > eligible[b].MatchScore
		})
	}

	filterRuns.Inc()
	filterResultSize.Observe(float64(len(eligible)))
	e.audit.RecordEvent(audit.EventJobFilterRun, employerID, map[string]string{
		"jobId":       jobID,
		"employerId":  employerID,
		"resultCount": strconv.Itoa(len(eligible)),
	})
	e.logger.Info().
		Str("employer_id", employerID).
		Str("job_id", jobID).
		Int("pool", len(pool)).
		Int("eligible", len(eligible)).
		Msg("eligibility filter run")

	return EligibleList{JobID: jobID, EligibleCandidates: eligible}, nil
}

// CandidateMatches returns the jobs, among employers the candidate shared
// with, whose thresholds the candidate meets.
func (e *Engine) CandidateMatches(ctx context.Context, candidateID string) (RoleMatchList, error) {
	c, err := e.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return RoleMatchList{}, err
	}

	out := RoleMatchList{CandidateID: candidateID, RecommendedJobs: []RoleMatch{}}
	if len(c.SharedEmployers) == 0 {
		return out, nil
	}

	jobs, err := e.jobs.JobsForEmployers(ctx, c.SharedEmployers)
	if err != nil {
		return RoleMatchList{}, fmt.Errorf("load jobs: %w", err)
	}

	results := make([]*RoleMatch, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, job := range jobs {
		if !c.HasSharedWith(job.EmployerID) {
			continue
		}
		i, job := i, job
		g.Go(func() error {
			scores, ok, err := e.trackScores(gctx, c.ID, job)
			if err != nil || !ok {
				return err
			}
			emp, err := e.jobs.GetEmployer(gctx, job.EmployerID)
			if err != nil {
				return err
			}
			match, _ := Score(job, scores)
			results[i] = &RoleMatch{JobID: job.ID, Company: emp.Name, MatchScore: match}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RoleMatchList{}, fmt.Errorf("evaluate jobs: %w", err)
	}

	for _, r := range results {
		if r != nil {
			out.RecommendedJobs = append(out.RecommendedJobs, *r)
		}
	}
	if e.opts.RankByScore {
		sort.SliceStable(out.RecommendedJobs, func(a, b int) bool {
			return out.RecommendedJobs[a].MatchScore > out.RecommendedJobs[b].MatchScore
		})
	}
	return out, nil
}

// CandidateReport returns one candidate's report to an employer the
// candidate has shared with.
func (e *Engine) CandidateReport(ctx context.Context, employerID, candidateID string, track question.Track) (scoring.Report, error) {
	c, err := e.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return scoring.Report{}, err
	}
	if !c.HasSharedWith(employerID) {
		deniedReads.Inc()
		return scoring.Report{}, apperr.Unauthorized("unauthorized: candidate %s has not shared results with employer %s", candidateID, employerID)
	}
	report, err := e.reports.GetReport(ctx, candidateID, track)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return scoring.Report{}, apperr.NotFound("score not found for track %s", track)
		}
		return scoring.Report{}, err
	}
	return report, nil
}

// trackScores loads the candidate's overall score for every required track.
// ok is false when a report is missing or a threshold is not met.
func (e *Engine) trackScores(ctx context.Context, candidateID string, job employer.Job) (map[question.Track]int, bool, error) {
	scores := make(map[question.Track]int, len(job.RequiredTracks))
	for _, track := range job.RequiredTracks {
		report, err := e.reports.GetReport(ctx, candidateID, track)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}
		scores[track] = report.OverallScore
	}
	return scores, Qualifies(job, scores), nil
}
