package matching

import (
	"fmt"
	"strings"

	"github.com/gokatarajesh/skill-assessment/internal/employer"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

const (
	maxTrackContribution = 120
	maxMatchScore        = 100
)

// Qualifies reports whether scores meet every required track's threshold. A
// missing score or a missing threshold disqualifies.
func Qualifies(job employer.Job, scores map[question.Track]int) bool {
	for _, track := range job.RequiredTracks {
		score, ok := scores[track]
		if !ok {
			return false
		}
		threshold, ok := job.MinScores[track]
		if !ok || score < threshold {
			return false
		}
	}
	return true
}

// Score computes the match score and its "track: score/threshold"
// explanation. Each track contributes score/threshold scaled to 100 and
// capped at 120; the average is capped at 100.
func Score(job employer.Job, scores map[question.Track]int) (int, string) {
	if len(job.RequiredTracks) == 0 {
		return 0, ""
	}

	total := 0
	parts := make([]string, 0, len(job.RequiredTracks))
	for _, track := range job.RequiredTracks {
		score := scores[track]
		threshold, ok := job.MinScores[track]
		if !ok {
			threshold = 1
		}
		divisor := threshold
		if divisor < 1 {
			divisor = 1
		}
		contribution := int(float64(score) / float64(divisor) * 100)
		if contribution > maxTrackContribution {
			contribution = maxTrackContribution
		}
		total += contribution
		parts = append(parts, fmt.Sprintf("%s: %d/%d", track, score, threshold))
	}

	avg := int(float64(total) / float64(len(job.RequiredTracks)))
	if avg > maxMatchScore {
		avg = maxMatchScore
	}
	return avg, strings.Join(parts, "; ")
}
