package employer

import (
	"time"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Employer is a hiring organisation.
type Employer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Job is an employer's requirement for a role.
type Job struct {
	ID                       string                 `json:"jobId"`
	EmployerID               string                 `json:"employerId"`
	RequiredTracks           []question.Track       `json:"requiredTracks"`
	MinScores                map[question.Track]int `json:"minScores"`
	PreferredExperienceYears *int                   `json:"preferredExperienceYears,omitempty"`
	UpdatedAt                time.Time              `json:"updatedAt"`
}

// Clone returns a deep copy.
func (j Job) Clone() Job {
	j.RequiredTracks = append([]question.Track{}, j.RequiredTracks...)
	scores := make(map[question.Track]int, len(j.MinScores))
	for k, v := range j.MinScores {
		scores[k] = v
	}
	j.MinScores = scores
	if j.PreferredExperienceYears != nil {
		years := *j.PreferredExperienceYears
		j.PreferredExperienceYears = &years
	}
	return j
}

// CreateRequest is the employer sign-up payload.
type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
