package sqlstore

import (
	"context"
	"fmt"

	"github.com/gokatarajesh/skill-assessment/internal/audit"
)

func (s *Store) AppendEvent(ctx context.Context, evt audit.Event) error {
	payload, err := encodeJSON(evt.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO event_log (id, event_type, actor_id, payload_json, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		evt.ID, evt.Type, evt.ActorID, payload, toNanos(evt.Timestamp))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// RecentEvents returns the newest limit events, oldest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, actor_id, payload_json, created_at FROM event_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]audit.Event, 0, limit)
	for rows.Next() {
		var (
			evt     audit.Event
			payload string
			created int64
		)
		if err := rows.Scan(&evt.ID, &evt.Type, &evt.ActorID, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := decodeJSON(payload, &evt.Payload); err != nil {
			return nil, err
		}
		evt.Timestamp = fromNanos(created)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
