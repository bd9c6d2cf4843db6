package ws

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishOnlyReachesTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := NewConnection(nil, zerolog.Nop())
	b := NewConnection(nil, zerolog.Nop())
	hub.Subscribe("emp_1", a)
	hub.Subscribe("emp_2", b)

	msg, err := NewMessage(TypeEvent, map[string]string{"jobId": "job_1"})
	require.NoError(t, err)
	require.NoError(t, hub.Publish("emp_1", msg))

	got := <-a.Outbound()
	assert.Equal(t, TypeEvent, got.Type)
	assert.JSONEq(t, `{"jobId":"job_1"}`, string(got.Payload))
	assert.Len(t, b.Outbound(), 0)
}

func TestHubUnsubscribeClosesConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := NewConnection(nil, zerolog.Nop())
	hub.Subscribe("emp_1", conn)
	require.Equal(t, 1, hub.Subscribers("emp_1"))

	hub.Unsubscribe("emp_1", conn)
	assert.Equal(t, 0, hub.Subscribers("emp_1"))
	assert.ErrorIs(t, conn.Send(Message{Type: TypePong}), ErrConnectionClosed)
}

func TestConnectionSendQueueFull(t *testing.T) {
	conn := NewConnection(nil, zerolog.Nop())
	for i := 0; i < cap(conn.sendCh); i++ {
		require.NoError(t, conn.Send(Message{Type: TypePong}))
	}
	assert.ErrorIs(t, conn.Send(Message{Type: TypePong}), ErrSendQueueFull)
}
