package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies errors a caller can recover from.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindExpired      Kind = "expired"
	KindExhausted    Kind = "exhausted"
	KindUnauthorized Kind = "unauthorized"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrExpired      = &Error{Kind: KindExpired}
	ErrExhausted    = &Error{Kind: KindExhausted}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrConflict     = &Error{Kind: KindConflict}
)

// Error carries a kind, a short message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error     { return newf(KindNotFound, format, args...) }
func InvalidState(format string, args ...any) *Error { return newf(KindInvalidState, format, args...) }
func Expired(format string, args ...any) *Error      { return newf(KindExpired, format, args...) }
func Exhausted(format string, args ...any) *Error    { return newf(KindExhausted, format, args...) }
func Unauthorized(format string, args ...any) *Error { return newf(KindUnauthorized, format, args...) }
func InvalidInput(format string, args ...any) *Error { return newf(KindInvalidInput, format, args...) }
func Conflict(format string, args ...any) *Error     { return newf(KindConflict, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or "" for
// internal failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

const genericMessage = "Something went wrong. Please try again or contact support if the problem persists."

var friendlyMessages = []struct {
	needle  string
	message string
}{
	{"session not found", "Your test session could not be found. Please start a new test."},
	{"session expired", "Your test session has expired. Please start a new test."},
	{"question not found", "The question could not be loaded. Please try again."},
	{"unauthorized", "You don't have permission to access this information."},
	{"timeout", "Your code took too long to run. Please optimize your solution."},
}

// FriendlyText maps a raw message onto the non-technical wording shown to
// candidates and employers.
func FriendlyText(message string) string {
	lower := strings.ToLower(message)
	for _, m := range friendlyMessages {
		if strings.Contains(lower, m.needle) {
			return m.message
		}
	}
	return genericMessage
}

// Friendly returns the user-facing message for err. Recoverable errors without a
// canned translation keep their own message; internal errors never leak.
func Friendly(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return genericMessage
	}
	if e.Kind == KindUnauthorized {
		return FriendlyText("unauthorized")
	}
	if friendly := FriendlyText(e.Message); friendly != genericMessage {
		return friendly
	}
	if e.Message != "" {
		return e.Message
	}
	return genericMessage
}
