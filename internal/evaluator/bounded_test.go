package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

func TestBoundedPassesThrough(t *testing.T) {
	b := NewBounded(NewHeuristic(), time.Second)

	v, err := b.Evaluate(context.Background(), mcq, Submission{Answer: "O(n log n)"})
	require.NoError(t, err)
	assert.True(t, v.Correct)
	assert.False(t, v.TimedOut)
}

func TestBoundedFailsSlowEvaluation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := Func(func(ctx context.Context, _ question.Question, _ Submission) (Verdict, error) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		return Verdict{Correct: true, Score: 100}, nil
	})
	b := NewBounded(slow, 20*time.Millisecond)

	start := time.Now()
	v, err := b.Evaluate(context.Background(), coding, Submission{Code: "def f(): return 1"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, v.TimedOut)
	assert.False(t, v.Correct)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, "Your code took too long to run. Please optimize your solution.", v.Feedback)
}

func TestBoundedContextAwareInnerDeadline(t *testing.T) {
	aware := Func(func(ctx context.Context, _ question.Question, _ Submission) (Verdict, error) {
		<-ctx.Done()
		return Verdict{}, ctx.Err()
	})
	v, err := NewBounded(aware, 10*time.Millisecond).Evaluate(context.Background(), coding, Submission{})
	require.NoError(t, err)
	assert.True(t, v.TimedOut)
}

func TestBoundedCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocking := Func(func(ctx context.Context, _ question.Question, _ Submission) (Verdict, error) {
		<-ctx.Done()
		return Verdict{}, ctx.Err()
	})
	_, err := NewBounded(blocking, time.Second).Evaluate(ctx, coding, Submission{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBoundedDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewBounded(NewHeuristic(), 0).timeout)
}
