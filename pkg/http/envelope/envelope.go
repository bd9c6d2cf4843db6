// Package envelope wraps successful API payloads as {data, traceId}.
package envelope

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderTraceID carries the trace id in and out of the API.
const HeaderTraceID = "X-Trace-Id"

type ctxKey struct{}

// Response is the success envelope.
type Response struct {
	Data    any    `json:"data"`
	TraceID string `json:"traceId"`
}

// NewTraceID returns a fresh "trace_<hex>" identifier.
func NewTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithTraceID stores id on ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// TraceID returns the id stored on ctx, or "".
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Trace assigns every request a trace id, reusing an inbound X-Trace-Id.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderTraceID))
		if id == "" || len(id) > 64 {
			id = NewTraceID()
		}
		w.Header().Set(HeaderTraceID, id)
		next.ServeHTTP(w, r.WithContext(WithTraceID(r.Context(), id)))
	})
}

// JSON writes data inside the envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data, TraceID: TraceID(r.Context())})
}
