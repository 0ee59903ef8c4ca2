package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/conductorhq/conductor/pkg/models"
)

const redisReadBlock = 2 * time.Second

// redisStreamClient is the subset of the redis client the bus needs.
type redisStreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
	Close() error
}

// RedisEventBus publishes events to a managed pub/sub stream. Each publish
// is exactly one XAdd call carrying the serialized event body plus a small
// attribute map derived from category and name, usable for server-side
// filtering.
type RedisEventBus struct {
	client    redisStreamClient
	stream    string
	retrier   *retrier
	listeners []Listener
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewRedisEventBus opens the client described by cfg. The connection is not
// verified here; the first publish may surface a connection error.
func NewRedisEventBus(cfg Config, logger *slog.Logger) (*RedisEventBus, error) {
	if cfg.Stream == "" {
		return nil, ErrMissingStream
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return newRedisEventBus(client, cfg, logger), nil
}

func newRedisEventBus(client redisStreamClient, cfg Config, logger *slog.Logger) *RedisEventBus {
	return &RedisEventBus{
		client:  client,
		stream:  cfg.Stream,
		retrier: newRetrier(cfg),
		logger:  logger.With("module", "eventbus", "driver", DriverPubSub, "stream", cfg.Stream),
		stopCh:  make(chan struct{}),
	}
}

// streamValues builds the wire shape for one event: the JSON body under
// "data" and the filterable attributes alongside it.
func streamValues(event *models.AnalyticsEvent) (map[string]any, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"data":     string(data),
		"category": event.Category,
		"name":     event.Name,
	}, nil
}

func (b *RedisEventBus) Publish(ctx context.Context, event *models.AnalyticsEvent) error {
	values, err := streamValues(event)
	if err != nil {
		return &PublishError{Attempts: 0, Err: err}
	}

	return b.retrier.do(ctx, func() error {
		return b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: b.stream,
			Values: values,
		}).Err()
	})
}

func (b *RedisEventBus) On(listener Listener) {
	b.listeners = append(b.listeners, listener)
}

// Subscribe reads the stream from its current tail and re-dispatches each
// entry to local listeners.
func (b *RedisEventBus) Subscribe(ctx context.Context) error {
	b.wg.Add(1)

	go b.consume(ctx)

	return nil
}

func (b *RedisEventBus) consume(ctx context.Context) {
	defer b.wg.Done()

	lastID := "$"

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		streams, err := b.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{b.stream, lastID},
			Block:   redisReadBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}

			b.logger.Error("Failed to read stream", "error", err)
			time.Sleep(time.Second)

			continue
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				lastID = entry.ID
				b.dispatch(ctx, entry.Values)
			}
		}
	}
}

func (b *RedisEventBus) dispatch(ctx context.Context, values map[string]any) {
	data, ok := values["data"].(string)
	if !ok {
		b.logger.Error("Stream entry missing data field")

		return
	}

	event := &models.AnalyticsEvent{}

	err := json.Unmarshal([]byte(data), event)
	if err != nil {
		b.logger.Error("Failed to decode event payload", "error", err)

		return
	}

	for _, listener := range b.listeners {
		err := listener(ctx, event)
		if err != nil {
			b.logger.Error("Listener failed", "event_id", event.EventID, "error", err)
		}
	}
}

func (b *RedisEventBus) Close() error {
	close(b.stopCh)
	b.wg.Wait()

	return b.client.Close()
}
