package evaluator

import (
	"context"
	"strings"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// strategy evaluates one question type.
type strategy interface {
	evaluate(q question.Question, sub Submission) Verdict
}

// Heuristic routes by question type. The coding strategy is a pattern-matching
// stand-in for sandboxed execution; swap in a sandbox-backed Evaluator behind
// NewBounded to replace it.
type Heuristic struct {
	strategies map[question.Type]strategy
}

var _ Evaluator = (*Heuristic)(nil)

type Option func(*Heuristic)

// WithCodingWeights overrides the coding score contributions.
func WithCodingWeights(w CodingWeights) Option {
	return func(h *Heuristic) { h.strategies[question.TypeCoding] = codingStrategy{weights: w} }
}

func NewHeuristic(opts ...Option) *Heuristic {
	h := &Heuristic{
		strategies: map[question.Type]strategy{
			question.TypeMCQ:    mcqStrategy{},
			question.TypeCoding: codingStrategy{weights: DefaultCodingWeights()},
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Heuristic) Evaluate(ctx context.Context, q question.Question, sub Submission) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	s, ok := h.strategies[q.Type]
	if !ok {
		return Verdict{Feedback: "no strategy available"}, nil
	}
	return s.evaluate(q, sub), nil
}

type mcqStrategy struct{}

func (mcqStrategy) evaluate(q question.Question, sub Submission) Verdict {
	answer := strings.TrimSpace(sub.Answer)
	if q.AnswerKey == "" || answer == "" {
		return Verdict{}
	}
	if answer == q.AnswerKey {
		return Verdict{Correct: true, Score: 100}
	}
	return Verdict{}
}

// CodingWeights are the points awarded per construct found in the code.
type CodingWeights struct {
	Def     int
	Return  int
	Loop    int
	Mapping int
}

func DefaultCodingWeights() CodingWeights {
	return CodingWeights{Def: 30, Return: 30, Loop: 20, Mapping: 20}
}

var unboundedLoops = []string{"while(true)", "while(1)", "for(;;)"}

type codingStrategy struct {
	weights CodingWeights
}

func (c codingStrategy) evaluate(_ question.Question, sub Submission) Verdict {
	if sub.Code == "" {
		return Verdict{}
	}
	code := strings.ToLower(sub.Code)

	hasReturn := strings.Contains(code, "return")
	hasLoop := strings.Contains(code, "for") || strings.Contains(code, "while")

	score := 0
	if strings.Contains(code, "def") {
		score += c.weights.Def
	}
	if hasReturn {
		score += c.weights.Return
	}
	if hasLoop {
		score += c.weights.Loop
	}
	if strings.Contains(code, "dict") || strings.Contains(code, "{") {
		score += c.weights.Mapping
	}
	score = clamp(score, 0, 100)

	for _, pattern := range unboundedLoops {
		if strings.Contains(code, pattern) {
			return Verdict{Score: score, Feedback: "unbounded loop detected"}
		}
	}
	return Verdict{Correct: hasReturn && hasLoop, Score: score}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
