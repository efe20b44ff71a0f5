package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalWhenNoRedis(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewPubSub_LocalRoundTrip(t *testing.T) {
	ps, err := NewPubSub(CacheConfig{LocalPubSubBuf: 4})
	require.NoError(t, err)

	ctx := context.Background()
	ch, cancel, err := ps.Subscribe(ctx, "mission:events")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "mission:events", `{"action":"completed"}`))
	select {
	case msg := <-ch:
		assert.Equal(t, "mission:events", msg.Channel)
		assert.JSONEq(t, `{"action":"completed"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message forwarded")
	}
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	_, err := NewCache(CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
