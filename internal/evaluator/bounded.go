package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/internal/question"
)

// DefaultTimeout is the hard cap for evaluating one submission.
const DefaultTimeout = 3 * time.Second

// Bounded enforces a per-evaluation deadline on an inner Evaluator. On overrun
// the submission fails instead of blocking the caller.
type Bounded struct {
	inner   Evaluator
	timeout time.Duration
}

var _ Evaluator = (*Bounded)(nil)

func NewBounded(inner Evaluator, timeout time.Duration) *Bounded {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bounded{inner: inner, timeout: timeout}
}

type outcome struct {
	verdict Verdict
	err     error
}

func (b *Bounded) Evaluate(ctx context.Context, q question.Question, sub Submission) (Verdict, error) {
	evalCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		v, err := b.inner.Evaluate(evalCtx, q, sub)
		done <- outcome{verdict: v, err: err}
	}()

	select {
	case out := <-done:
		evaluationSeconds.WithLabelValues(string(q.Type)).Observe(time.Since(start).Seconds())
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return timedOut(q), nil
		}
		return out.verdict, out.err
	case <-evalCtx.Done():
		if ctx.Err() != nil {
			return Verdict{}, ctx.Err()
		}
		return timedOut(q), nil
	}
}

func timedOut(q question.Question) Verdict {
	evaluationTimeouts.WithLabelValues(string(q.Type)).Inc()
	return Verdict{TimedOut: true, Feedback: apperr.FriendlyText("timeout")}
}
