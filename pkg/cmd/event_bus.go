package cmd

import (
	"log/slog"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/conductorhq/conductor/pkg/eventbus"
)

// EventBusFlags is the flag set shared by every binary that talks to the bus.
func EventBusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus driver (memory, broker, pubsub)",
			Value:   eventbus.DriverMemory,
			Sources: cli.EnvVars("EVENT_BUS"),
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka broker addresses for the broker driver",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "kafka-topic",
			Usage:   "Kafka topic for the broker driver",
			Value:   "conductor.events",
			Sources: cli.EnvVars("KAFKA_TOPIC"),
		},
		&cli.StringFlag{
			Name:    "kafka-consumer-group",
			Usage:   "Kafka consumer group for the broker driver",
			Sources: cli.EnvVars("KAFKA_CONSUMER_GROUP"),
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address for the pubsub driver",
			Value:   "localhost:6379",
			Sources: cli.EnvVars("REDIS_ADDR"),
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password for the pubsub driver",
			Sources: cli.EnvVars("REDIS_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "event-stream",
			Usage:   "Redis stream name for the pubsub driver",
			Value:   "conductor.events",
			Sources: cli.EnvVars("EVENT_STREAM"),
		},
		&cli.IntFlag{
			Name:    "publish-max-retries",
			Usage:   "Retries after the first failed publish attempt",
			Value:   3,
			Sources: cli.EnvVars("PUBLISH_MAX_RETRIES"),
		},
		&cli.DurationFlag{
			Name:    "publish-retry-backoff",
			Usage:   "Base wait between publish retries",
			Value:   250 * time.Millisecond,
			Sources: cli.EnvVars("PUBLISH_RETRY_BACKOFF"),
		},
		&cli.BoolFlag{
			Name:    "publish-exponential-backoff",
			Usage:   "Double the wait after each failed publish attempt",
			Sources: cli.EnvVars("PUBLISH_EXPONENTIAL_BACKOFF"),
		},
	}
}

// NewEventBus builds the bus from the shared flag set.
func NewEventBus(command *cli.Command, logger *slog.Logger) (eventbus.EventBus, error) {
	cfg := eventbus.Config{
		Driver:             command.String("event-bus"),
		Brokers:            command.StringSlice("kafka-brokers"),
		Topic:              command.String("kafka-topic"),
		ConsumerGroup:      command.String("kafka-consumer-group"),
		RedisAddr:          command.String("redis-addr"),
		RedisPassword:      command.String("redis-password"),
		Stream:             command.String("event-stream"),
		MaxRetries:         command.Int("publish-max-retries"),
		RetryBackoff:       command.Duration("publish-retry-backoff"),
		ExponentialBackoff: command.Bool("publish-exponential-backoff"),
	}

	return eventbus.New(cfg, logger)
}
