package employer

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/skill-assessment/internal/audit"
	ws "github.com/gokatarajesh/skill-assessment/pkg/http/ws"
)

// feedTopic returns the employer an event is addressed to, or "".
func feedTopic(evt audit.Event) string {
	switch evt.Type {
	case audit.EventCandidateShare, audit.EventJobUpserted, audit.EventJobFilterRun:
		return evt.Payload["employerId"]
	}
	return ""
}

func publishToHub(hub *ws.Hub, evt audit.Event) error {
	topic := feedTopic(evt)
	if topic == "" || hub.Subscribers(topic) == 0 {
		return nil
	}
	msg, err := ws.NewMessage(ws.TypeEvent, evt)
	if err != nil {
		return err
	}
	return hub.Publish(topic, msg)
}

// FeedSink pushes employer-addressed audit events straight to local
// websocket subscribers. Used when Redis is not configured.
type FeedSink struct {
	hub *ws.Hub
}

var _ audit.Sink = (*FeedSink)(nil)

func NewFeedSink(hub *ws.Hub) *FeedSink {
	return &FeedSink{hub: hub}
}

func (s *FeedSink) Name() string { return "employer_feed" }

func (s *FeedSink) Write(_ context.Context, evt audit.Event) error {
	return publishToHub(s.hub, evt)
}

// Broadcaster listens for audit events on Redis Pub/Sub and forwards the
// employer-addressed ones to this instance's feed subscribers.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a Pub/Sub powered feed broadcaster.
func NewBroadcaster(redis *redis.Client, hub *ws.Hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = audit.DefaultChannel
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "employer_feed_broadcaster").Logger(),
	}
}

// Run subscribes to the event channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt audit.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode audit event payload")
		return
	}
	if err := publishToHub(b.hub, evt); err != nil {
		b.logger.Warn().Err(err).Str("event_type", evt.Type).Msg("failed to forward feed event")
	}
}

// FeedHandler serves GET /ws/employers/{employerId}/feed. The route must be
// guarded so only the employer itself can subscribe.
func FeedHandler(hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) http.HandlerFunc {
	logger = logger.With().Str("component", "employer_feed").Logger()
	return func(w http.ResponseWriter, r *http.Request) {
		employerID := chi.URLParam(r, "employerId")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		c := ws.NewConnection(conn, logger)
		hub.Subscribe(employerID, c)
		defer hub.Unsubscribe(employerID, c)

		if hello, err := ws.NewMessage(ws.TypeSubscribed, ws.SubscribedPayload{Topic: employerID}); err == nil {
			_ = c.Send(hello)
		}

		go c.WritePump()
		c.ReadPump(func(msg ws.Message) error {
			switch msg.Type {
			case ws.TypePing:
				return c.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
			default:
				reply, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "unknown_message_type", Message: "Unsupported message type"})
				if err != nil {
					return err
				}
				reply.RequestID = msg.RequestID
				return c.Send(reply)
			}
		})
	}
}
