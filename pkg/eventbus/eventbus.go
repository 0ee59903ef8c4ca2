// Package eventbus delivers analytics events to interested consumers with
// at-least-once semantics, independent of which transport is configured.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conductorhq/conductor/pkg/models"
)

// Metadata keys attached to broker messages.
const (
	CategoryMetadataKey = "category"
	NameMetadataKey     = "name"
	EventIDMetadataKey  = "event_id"
)

// Driver names accepted by Config.Driver.
const (
	DriverMemory = "memory"
	DriverBroker = "broker"
	DriverPubSub = "pubsub"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 250 * time.Millisecond
)

// Listener is invoked once per delivered event. For the in-process driver
// delivery is synchronous and in registration order.
type Listener func(ctx context.Context, event *models.AnalyticsEvent) error

// EventBus publishes analytics events and dispatches them to local listeners.
// Publish succeeds once the configured transport accepts the event, not once
// downstream consumers have processed it.
type EventBus interface {
	Publish(ctx context.Context, event *models.AnalyticsEvent) error
	On(listener Listener)

	// Subscribe starts delivering transported events to registered
	// listeners. The in-process driver delivers synchronously from Publish
	// and treats Subscribe as a no-op.
	Subscribe(ctx context.Context) error

	Close() error
}

// Config is the single configuration object passed at construction.
type Config struct {
	Driver string

	// Broker driver.
	Brokers       []string
	Topic         string
	ConsumerGroup string

	// Managed pub/sub driver.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Stream        string

	// Retry tuning for transient publish failures.
	MaxRetries         int
	RetryBackoff       time.Duration
	ExponentialBackoff bool
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}

	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaultRetryBackoff
	}

	return c
}

// Configuration sentinels. These are permanent errors and never retried.
var (
	ErrUnknownDriver  = errors.New("unknown event bus driver")
	ErrMissingBrokers = errors.New("broker driver requires at least one broker address")
	ErrMissingTopic   = errors.New("broker driver requires a topic")
	ErrMissingStream  = errors.New("pubsub driver requires a stream name")
)

// IsConfigurationError reports whether err is a permanent configuration
// problem rather than a transient transport failure.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownDriver) ||
		errors.Is(err, ErrMissingBrokers) ||
		errors.Is(err, ErrMissingTopic) ||
		errors.Is(err, ErrMissingStream)
}

// PublishError is surfaced by Publish once its retry budget is exhausted or
// a permanent error is hit. Attempts counts every send that was made.
type PublishError struct {
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// New constructs the event bus for the configured driver. Broker-backed
// drivers open their connection here but do not guarantee connectivity;
// the first publish may surface a connection error.
func New(cfg Config, logger *slog.Logger) (EventBus, error) {
	cfg = cfg.withDefaults()

	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryEventBus(logger), nil
	case DriverBroker:
		return NewKafkaEventBus(cfg, logger)
	case DriverPubSub:
		return NewRedisEventBus(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
