package question

import (
	"fmt"
	"strings"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
)

// Track identifies the subject area a question belongs to.
type Track string

const (
	TrackPythonCore     Track = "python_core_v1"
	TrackSQLCore        Track = "sql_core_v1"
	TrackJavaScriptCore Track = "javascript_core_v1"
)

// KnownTracks lists the tracks candidates can select, in display order.
var KnownTracks = []Track{TrackPythonCore, TrackSQLCore, TrackJavaScriptCore}

// Valid reports whether t is one of KnownTracks.
func (t Track) Valid() bool {
	for _, k := range KnownTracks {
		if k == t {
			return true
		}
	}
	return false
}

// Band is a difficulty level.
type Band string

// Difficulty constants for readability.
const (
	BandEasy   Band = "easy"
	BandMedium Band = "medium"
	BandHard   Band = "hard"
)

// Bands is the ladder in ascending difficulty.
var Bands = []Band{BandEasy, BandMedium, BandHard}

func (b Band) index() int {
	for i, v := range Bands {
		if v == b {
			return i
		}
	}
	return -1
}

func (b Band) Valid() bool { return b.index() >= 0 }

// Harder returns the next band up, or b itself at the top.
func (b Band) Harder() Band {
	i := b.index()
	if i < 0 || i == len(Bands)-1 {
		return b
	}
	return Bands[i+1]
}

// Easier returns the next band down, or b itself at the bottom.
func (b Band) Easier() Band {
	i := b.index()
	if i <= 0 {
		return b
	}
	return Bands[i-1]
}

// Type constants.
type Type string

const (
	TypeMCQ    Type = "mcq"
	TypeCoding Type = "coding"
)

// Subskill is a scoring category.
type Subskill string

const (
	SubskillAlgorithms     Subskill = "algorithms"
	SubskillDataStructures Subskill = "data_structures"
	SubskillCodeQuality    Subskill = "code_quality"
)

// Subskills lists every scoring category in report order.
var Subskills = []Subskill{SubskillAlgorithms, SubskillDataStructures, SubskillCodeQuality}

func (s Subskill) Valid() bool {
	for _, v := range Subskills {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultTimeLimitSeconds applies when a record omits its time limit.
const DefaultTimeLimitSeconds = 300

// Question is an item bank record. AnswerKey and ReferenceSolution are
// server-side only; clients receive Public.
type Question struct {
	ID                string   `json:"questionId" yaml:"questionId"`
	Track             Track    `json:"trackId" yaml:"trackId"`
	Prompt            string   `json:"prompt" yaml:"prompt"`
	Type              Type     `json:"questionType" yaml:"questionType"`
	Difficulty        Band     `json:"difficulty" yaml:"difficulty"`
	Tags              []string `json:"tags" yaml:"tags"`
	Subskill          Subskill `json:"subskill" yaml:"subskill"`
	Options           []string `json:"options,omitempty" yaml:"options,omitempty"`
	ReferenceSolution string   `json:"referenceSolution,omitempty" yaml:"referenceSolution,omitempty"`
	AnswerKey         string   `json:"answerKey,omitempty" yaml:"answerKey,omitempty"`
	TimeLimitSeconds  int      `json:"timeLimitSeconds" yaml:"timeLimitSeconds"`
}

// Public is the sanitized payload delivered to candidates.
type Public struct {
	ID               string   `json:"questionId"`
	Track            Track    `json:"trackId"`
	Prompt           string   `json:"prompt"`
	Type             Type     `json:"questionType"`
	Difficulty       Band     `json:"difficulty"`
	Tags             []string `json:"tags"`
	Subskill         Subskill `json:"subskill"`
	Options          []string `json:"options,omitempty"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// Public strips the answer key and reference solution.
func (q Question) Public() Public {
	return Public{
		ID:               q.ID,
		Track:            q.Track,
		Prompt:           q.Prompt,
		Type:             q.Type,
		Difficulty:       q.Difficulty,
		Tags:             append([]string{}, q.Tags...),
		Subskill:         q.Subskill,
		Options:          append([]string(nil), q.Options...),
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// Clone returns a deep copy so callers cannot mutate bank state.
func (q Question) Clone() Question {
	q.Tags = append([]string{}, q.Tags...)
	if q.Options != nil {
		q.Options = append([]string{}, q.Options...)
	}
	return q
}

// Normalize trims identifiers and applies defaults.
func (q *Question) Normalize() {
	q.ID = strings.TrimSpace(q.ID)
	q.Track = Track(strings.TrimSpace(string(q.Track)))
	q.Type = Type(strings.ToLower(strings.TrimSpace(string(q.Type))))
	q.Difficulty = Band(strings.ToLower(strings.TrimSpace(string(q.Difficulty))))
	q.Subskill = Subskill(strings.ToLower(strings.TrimSpace(string(q.Subskill))))
	if q.TimeLimitSeconds <= 0 {
		q.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
}

// Validate checks a normalized record.
func (q Question) Validate() error {
	switch {
	case q.ID == "":
		return apperr.InvalidInput("questionId is required")
	case !q.Track.Valid():
		return apperr.InvalidInput("question %s: unknown track %q", q.ID, q.Track)
	case strings.TrimSpace(q.Prompt) == "":
		return apperr.InvalidInput("question %s: prompt is required", q.ID)
	case !q.Difficulty.Valid():
		return apperr.InvalidInput("question %s: unknown difficulty %q", q.ID, q.Difficulty)
	case !q.Subskill.Valid():
		return apperr.InvalidInput("question %s: unknown subskill %q", q.ID, q.Subskill)
	}

	switch q.Type {
	case TypeMCQ:
		if q.AnswerKey == "" {
			return apperr.InvalidInput("question %s: mcq requires answerKey", q.ID)
		}
	case TypeCoding:
	default:
		return apperr.InvalidInput("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}

func (q Question) String() string {
	return fmt.Sprintf("%s[%s/%s/%s]", q.ID, q.Track, q.Difficulty, q.Type)
}
