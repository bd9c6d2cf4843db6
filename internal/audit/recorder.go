package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/ids"
)

// Sink persists or forwards events.
type Sink interface {
	Name() string
	Write(ctx context.Context, evt Event) error
}

// DefaultBufferSize bounds the in-flight event queue.
const DefaultBufferSize = 1024

const sinkWriteTimeout = 2 * time.Second

// AsyncRecorder queues events and hands them to sinks on a background worker.
// A full queue drops the event rather than blocking the request path.
type AsyncRecorder struct {
	events chan Event
	sinks  []Sink
	now    func() time.Time
	logger zerolog.Logger
}

var _ Recorder = (*AsyncRecorder)(nil)

func NewAsyncRecorder(bufferSize int, logger zerolog.Logger, sinks ...Sink) *AsyncRecorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &AsyncRecorder{
		events: make(chan Event, bufferSize),
		sinks:  sinks,
		now:    time.Now,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// RecordEvent enqueues an event. It never blocks.
func (r *AsyncRecorder) RecordEvent(eventType, actorID string, payload map[string]string) {
	copied := make(map[string]string, len(payload))
	for k, v := range payload {
		copied[k] = v
	}
	evt := Event{
		ID:        ids.New("evt"),
		Type:      eventType,
		ActorID:   actorID,
		Payload:   copied,
		Timestamp: r.now().UTC(),
	}

	select {
	case r.events <- evt:
		eventsRecorded.WithLabelValues(eventType).Inc()
	default:
		eventsDropped.Inc()
		r.logger.Warn().Str("event_type", eventType).Msg("audit buffer full, event dropped")
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left in the queue.
func (r *AsyncRecorder) Run(ctx context.Context) error {
	r.logger.Info().Int("sinks", len(r.sinks)).Msg("audit worker started")
	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.logger.Info().Msg("audit worker stopped")
			return ctx.Err()
		case evt := <-r.events:
			r.dispatch(context.Background(), evt)
		}
	}
}

// Pending returns the number of queued events.
func (r *AsyncRecorder) Pending() int {
	return len(r.events)
}

func (r *AsyncRecorder) drain() {
	for {
		select {
		case evt := <-r.events:
			r.dispatch(context.Background(), evt)
		default:
			return
		}
	}
}

func (r *AsyncRecorder) dispatch(parent context.Context, evt Event) {
	for _, sink := range r.sinks {
		ctx, cancel := context.WithTimeout(parent, sinkWriteTimeout)
		err := sink.Write(ctx, evt)
		cancel()
		if err != nil {
			sinkErrors.WithLabelValues(sink.Name()).Inc()
			r.logger.Warn().Err(err).Str("sink", sink.Name()).Str("event_type", evt.Type).Msg("audit sink write failed")
		}
	}
}
