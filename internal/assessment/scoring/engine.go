package scoring

import (
	"math"
	"time"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Config holds configurable scoring constants (defaults match the published
// report rules).
type Config struct {
	AlgorithmsWeight     float64 // default: 0.4
	DataStructuresWeight float64 // default: 0.4
	CodeQualityWeight    float64 // default: 0.2
	StrengthThreshold    int     // default: 75, inclusive
	WeaknessThreshold    int     // default: 50, exclusive
	Percentiles          PercentileTable
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		AlgorithmsWeight:     0.4,
		DataStructuresWeight: 0.4,
		CodeQualityWeight:    0.2,
		StrengthThreshold:    75,
		WeaknessThreshold:    50,
		Percentiles:          DefaultPercentileTable(),
	}
}

// Breakdown is the per-subskill score, each 0-100.
type Breakdown struct {
	Algorithms     int `json:"algorithms"`
	DataStructures int `json:"data_structures"`
	CodeQuality    int `json:"code_quality"`
}

func (b Breakdown) get(s question.Subskill) int {
	switch s {
	case question.SubskillAlgorithms:
		return b.Algorithms
	case question.SubskillDataStructures:
		return b.DataStructures
	case question.SubskillCodeQuality:
		return b.CodeQuality
	}
	return 0
}

// Report is the stored outcome of a finalized session. One per
// (candidate, track).
type Report struct {
	CandidateID  string         `json:"candidateId"`
	Track        question.Track `json:"trackId"`
	OverallScore int            `json:"overallScore"`
	Subscores    Breakdown      `json:"subscores"`
	Percentile   int            `json:"percentile"`
	Strengths    []string       `json:"strengths"`
	Weaknesses   []string       `json:"weaknesses"`
	CompletedAt  time.Time      `json:"completedAt"`
}

// Item is one evaluated response ready for aggregation.
type Item struct {
	Subskill question.Subskill
	Tags     []string
	Score    int
}

// Result is the scored portion of a report.
type Result struct {
	OverallScore int
	Subscores    Breakdown
	Percentile   int
	Strengths    []string
	Weaknesses   []string
}

// Engine aggregates evaluated responses into a report.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	if config.Percentiles == nil {
		config.Percentiles = DefaultPercentileTable()
	}
	return &Engine{config: config}
}

// Score computes subscores, overall, percentile and strengths/weaknesses.
// Items with an unknown subskill still contribute to tag analysis.
func (e *Engine) Score(items []Item) Result {
	bySubskill := make(map[question.Subskill][]int, len(question.Subskills))
	for _, it := range items {
		bySubskill[it.Subskill] = append(bySubskill[it.Subskill], clamp(it.Score))
	}

	breakdown := Breakdown{
		Algorithms:     mean(bySubskill[question.SubskillAlgorithms]),
		DataStructures: mean(bySubskill[question.SubskillDataStructures]),
		CodeQuality:    mean(bySubskill[question.SubskillCodeQuality]),
	}

	overall := e.Overall(breakdown)
	strengths, weaknesses := e.strengthsAndWeaknesses(items, breakdown)

	return Result{
		OverallScore: overall,
		Subscores:    breakdown,
		Percentile:   e.config.Percentiles.Lookup(overall),
		Strengths:    strengths,
		Weaknesses:   weaknesses,
	}
}

// Overall weights the breakdown and rounds half away from zero.
func (e *Engine) Overall(b Breakdown) int {
	raw := e.config.AlgorithmsWeight*float64(b.Algorithms) +
		e.config.DataStructuresWeight*float64(b.DataStructures) +
		e.config.CodeQualityWeight*float64(b.CodeQuality)
	return clamp(int(math.Round(raw)))
}

func (e *Engine) strengthsAndWeaknesses(items []Item, b Breakdown) ([]string, []string) {
	strengths := make([]string, 0)
	weaknesses := make([]string, 0)
	contains := func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	}

	for _, s := range question.Subskills {
		score := b.get(s)
		if score >= e.config.StrengthThreshold {
			strengths = append(strengths, string(s))
		} else if score < e.config.WeaknessThreshold {
			weaknesses = append(weaknesses, string(s))
		}
	}

	// Tag averages in first-seen order.
	var tagOrder []string
	tagScores := make(map[string][]int)
	for _, it := range items {
		for _, tag := range it.Tags {
			if _, ok := tagScores[tag]; !ok {
				tagOrder = append(tagOrder, tag)
			}
			tagScores[tag] = append(tagScores[tag], clamp(it.Score))
		}
	}
	for _, tag := range tagOrder {
		avg := average(tagScores[tag])
		if avg >= float64(e.config.StrengthThreshold) && !contains(strengths, tag) {
			strengths = append(strengths, tag)
		} else if avg < float64(e.config.WeaknessThreshold) && !contains(weaknesses, tag) {
			weaknesses = append(weaknesses, tag)
		}
	}

	if len(strengths) == 0 && len(weaknesses) == 0 {
		if b.Algorithms > b.DataStructures {
			strengths = append(strengths, string(question.SubskillAlgorithms))
			weaknesses = append(weaknesses, string(question.SubskillDataStructures))
		} else {
			strengths = append(strengths, string(question.SubskillDataStructures))
			weaknesses = append(weaknesses, string(question.SubskillAlgorithms))
		}
	}
	return strengths, weaknesses
}

// mean truncates toward zero; no scores means 0.
func mean(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	return int(average(scores))
}

func average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return float64(total) / float64(len(scores))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
