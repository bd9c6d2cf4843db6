package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load session: %w", NotFound("session not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrExpired))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
}

func TestKindOfInternalError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := &Error{Kind: KindConflict, Message: "session changed", Err: errors.New("version 3")}
	assert.Equal(t, "session changed: version 3", err.Error())
	assert.Equal(t, "conflict", (&Error{Kind: KindConflict}).Error())
}

func TestFriendly(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"session missing", NotFound("session not found"), "Your test session could not be found. Please start a new test."},
		{"session expired", Expired("session expired"), "Your test session has expired. Please start a new test."},
		{"question missing", NotFound("question not found"), "The question could not be loaded. Please try again."},
		{"unauthorized kind", Unauthorized("candidate has not shared"), "You don't have permission to access this information."},
		{"own message", InvalidState("session already finalized"), "session already finalized"},
		{"internal", errors.New("pq: connection refused"), genericMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Friendly(tc.err))
		})
	}
}

func TestFriendlyTextTimeout(t *testing.T) {
	assert.Equal(t, "Your code took too long to run. Please optimize your solution.", FriendlyText("evaluation Timeout"))
	assert.Equal(t, genericMessage, FriendlyText("disk full"))
}
