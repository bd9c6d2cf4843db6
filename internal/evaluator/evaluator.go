package evaluator

import (
	"context"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// Submission is the gradable part of a candidate response.
type Submission struct {
	Answer string
	Code   string
}

// Verdict is the outcome of evaluating one submission.
type Verdict struct {
	Correct  bool
	Score    int // 0-100
	TimedOut bool
	Feedback string
}

// Evaluator judges a single submission against its question. Implementations
// must respect ctx cancellation.
type Evaluator interface {
	Evaluate(ctx context.Context, q question.Question, sub Submission) (Verdict, error)
}

// Func adapts a function to Evaluator.
type Func func(ctx context.Context, q question.Question, sub Submission) (Verdict, error)

func (f Func) Evaluate(ctx context.Context, q question.Question, sub Submission) (Verdict, error) {
	return f(ctx, q, sub)
}
