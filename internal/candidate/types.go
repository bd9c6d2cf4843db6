package candidate

import (
	"strings"
	"time"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Profile is what a candidate tells us about themselves.
type Profile struct {
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Github         string            `json:"github,omitempty"`
	EducationLevel string            `json:"educationLevel,omitempty"`
	GraduationYear *int              `json:"graduationYear,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// Candidate is a registered test taker.
type Candidate struct {
	ID              string           `json:"id"`
	Profile         Profile          `json:"profile"`
	SelectedTracks  []question.Track `json:"selectedTracks"`
	SharedEmployers []string         `json:"sharedEmployers"`
	PasswordHash    string           `json:"-"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// HasSharedWith reports whether the candidate consented to employerID seeing
// their results.
func (c Candidate) HasSharedWith(employerID string) bool {
	for _, id := range c.SharedEmployers {
		if id == employerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c Candidate) Clone() Candidate {
	c.SelectedTracks = append([]question.Track{}, c.SelectedTracks...)
	c.SharedEmployers = append([]string{}, c.SharedEmployers...)
	if c.Profile.Attributes != nil {
		attrs := make(map[string]string, len(c.Profile.Attributes))
		for k, v := range c.Profile.Attributes {
			attrs[k] = v
		}
		c.Profile.Attributes = attrs
	}
	if c.Profile.GraduationYear != nil {
		year := *c.Profile.GraduationYear
		c.Profile.GraduationYear = &year
	}
	return c
}

// RegisterRequest is the sign-up payload: the profile fields plus a password.
type RegisterRequest struct {
	Profile
	Password string `json:"password"`
}

// demographicFields never reach storage so they cannot influence testing.
var demographicFields = map[string]struct{}{
	"age":         {},
	"gender":      {},
	"race":        {},
	"ethnicity":   {},
	"nationality": {},
	"religion":    {},
}

// StripDemographics drops demographic attributes, matching keys
// case-insensitively. It returns nil when nothing is left.
func StripDemographics(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if _, banned := demographicFields[strings.ToLower(strings.TrimSpace(k))]; banned {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
