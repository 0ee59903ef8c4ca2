package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/models"
)

// fakeStreamClient fails the first failures XAdd calls, then accepts.
type fakeStreamClient struct {
	failures int
	calls    int
	added    []*redis.XAddArgs
}

func (c *fakeStreamClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	c.calls++

	cmd := redis.NewStringCmd(ctx)

	if c.calls <= c.failures {
		cmd.SetErr(errors.New("connection refused"))

		return cmd
	}

	c.added = append(c.added, a)
	cmd.SetVal("1-0")

	return cmd
}

func (c *fakeStreamClient) XRead(ctx context.Context, _ *redis.XReadArgs) *redis.XStreamSliceCmd {
	cmd := redis.NewXStreamSliceCmd(ctx)
	cmd.SetErr(redis.Nil)

	return cmd
}

func (c *fakeStreamClient) Close() error {
	return nil
}

func testRedisBus(client redisStreamClient, maxRetries int) *RedisEventBus {
	cfg := Config{
		Driver:       DriverPubSub,
		Stream:       "conductor.events",
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
	}

	return newRedisEventBus(client, cfg, testLogger())
}

func TestStreamValues_PayloadAndAttributes(t *testing.T) {
	event := models.NewAnalyticsEvent("pos-terminal", models.CategoryOrderLifecycle, "completed", map[string]any{
		"order_id": "order-1",
	})

	values, err := streamValues(event)
	require.NoError(t, err)

	// Attributes are alongside the body so consumers can filter without
	// decoding it.
	assert.Equal(t, "order.lifecycle", values["category"])
	assert.Equal(t, "completed", values["name"])

	data, ok := values["data"].(string)
	require.True(t, ok)

	decoded := &models.AnalyticsEvent{}
	require.NoError(t, json.Unmarshal([]byte(data), decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "order-1", decoded.Payload["order_id"])
}

func TestRedisEventBus_PublishIsOneCallPerEvent(t *testing.T) {
	client := &fakeStreamClient{}
	bus := testRedisBus(client, 3)

	event := models.NewAnalyticsEvent("test", models.CategoryDeliveryStatus, "updated", nil)

	err := bus.Publish(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, client.added, 1)
	assert.Equal(t, "conductor.events", client.added[0].Stream)
	assert.Equal(t, 1, client.calls)
}

func TestRedisEventBus_PublishRetriesTransientFailures(t *testing.T) {
	client := &fakeStreamClient{failures: 2}
	bus := testRedisBus(client, 3)

	event := models.NewAnalyticsEvent("test", models.CategoryDeliveryStatus, "updated", nil)

	err := bus.Publish(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls)
	assert.Len(t, client.added, 1)
}

func TestRedisEventBus_PublishExhaustsRetryBudget(t *testing.T) {
	const maxRetries = 2

	client := &fakeStreamClient{failures: 100}
	bus := testRedisBus(client, maxRetries)

	event := models.NewAnalyticsEvent("test", models.CategoryDeliveryStatus, "updated", nil)

	err := bus.Publish(context.Background(), event)
	require.Error(t, err)

	var publishErr *PublishError

	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, maxRetries+1, publishErr.Attempts)
}

func TestNewRedisEventBus_RequiresStream(t *testing.T) {
	_, err := NewRedisEventBus(Config{Driver: DriverPubSub}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingStream)
	assert.True(t, IsConfigurationError(err))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "carrier-pigeon"}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
