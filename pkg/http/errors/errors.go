package errors

import (
	"encoding/json"
	"net/http"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
	"github.com/gokatarajesh/skill-assessment/pkg/http/envelope"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"traceId,omitempty"`
}

func write(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// RespondError writes a standardized error response to the HTTP response writer
func RespondError(w http.ResponseWriter, status int, code, message string) {
	write(w, status, ErrorResponse{Error: code, Message: message})
}

// RespondValidationError writes a validation error response with field information
func RespondValidationError(w http.ResponseWriter, code, message, field string) {
	write(w, http.StatusBadRequest, ErrorResponse{Error: code, Message: message, Field: field})
}

// RespondInternalError writes an internal server error response
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// RespondNotFound writes a not found error response
func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

// RespondUnauthorized writes an unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}

// RespondForbidden writes a forbidden error response
func RespondForbidden(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusForbidden, code, message)
}

// RespondBadRequest writes a bad request error response
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondServiceUnavailable writes a service unavailable error response
func RespondServiceUnavailable(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusServiceUnavailable, code, message)
}

// StatusFor maps an error kind to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case apperr.KindInvalidState:
		return http.StatusConflict, ErrCodeInvalidState
	case apperr.KindExpired:
		return http.StatusGone, ErrCodeExpired
	case apperr.KindExhausted:
		return http.StatusConflict, ErrCodeExhausted
	case apperr.KindUnauthorized:
		return http.StatusForbidden, ErrCodeUnauthorized
	case apperr.KindInvalidInput:
		return http.StatusBadRequest, ErrCodeValidationFailed
	case apperr.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// RespondAppError writes err with its mapped status and a user-facing message.
// Internal details never reach the client.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	write(w, status, ErrorResponse{
		Error:   code,
		Message: apperr.Friendly(err),
		TraceID: envelope.TraceID(r.Context()),
	})
}
