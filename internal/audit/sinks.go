package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the Redis pub/sub channel events are fanned out on.
const DefaultChannel = "audit:events"

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "audit_log").Logger()}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(_ context.Context, evt Event) error {
	e := s.logger.Info().
		Str("event_id", evt.ID).
		Str("event_type", evt.Type).
		Str("actor_id", evt.ActorID)
	for k, v := range evt.Payload {
		e = e.Str(k, v)
	}
	e.Msg("audit event")
	return nil
}

// EventStore persists the audit trail.
type EventStore interface {
	AppendEvent(ctx context.Context, evt Event) error
	// RecentEvents returns at most limit events, oldest first.
	RecentEvents(ctx context.Context, limit int) ([]Event, error)
}

// StoreSink appends events to an EventStore.
type StoreSink struct {
	store EventStore
}

func NewStoreSink(store EventStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Write(ctx context.Context, evt Event) error {
	return s.store.AppendEvent(ctx, evt)
}

// RedisPublisher fans events out over Redis pub/sub so every API instance
// sees them.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{redis: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Write(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.redis.Publish(ctx, p.channel, data).Err()
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, evt Event) error
}

func (f SinkFunc) Name() string { return f.SinkName }

func (f SinkFunc) Write(ctx context.Context, evt Event) error { return f.Fn(ctx, evt) }
