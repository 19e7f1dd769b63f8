package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examconduct/internal/pkg/redis"
)

type command struct {
	Action          string `json:"action"`
	ParticipationID int64  `json:"participationId"`
}

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(redis.Config{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisher_DeliversToSubscriber(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	sub := client.Subscribe(ctx, "vcs:repository-access")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewRedisPublisher(client, "vcs:repository-access", zerolog.Nop())
	require.NoError(t, publisher.Publish(ctx, command{Action: "LOCK", ParticipationID: 9}))

	select {
	case msg := <-sub.Channel():
		var got command
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, command{Action: "LOCK", ParticipationID: 9}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestRedisPublisher_NoSubscriberIsAnError(t *testing.T) {
	publisher := NewRedisPublisher(newClient(t), "vcs:repository-access", zerolog.Nop())
	err := publisher.Publish(context.Background(), command{Action: "UNLOCK"})
	assert.ErrorContains(t, err, "no subscriber")
}
