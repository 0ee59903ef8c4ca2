package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/conductorhq/conductor/pkg/models"
)

// KafkaEventBus publishes events to a single configured topic on a
// log-structured broker. Transient send failures are retried with backoff;
// the bus itself never duplicates delivery on retry, broker-side dedup is
// the broker's concern.
type KafkaEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	retrier    *retrier
	listeners  []Listener
	logger     *slog.Logger
}

// NewKafkaEventBus opens the broker connection described by cfg. Connectivity
// is not verified here; the first publish may surface a connection error.
func NewKafkaEventBus(cfg Config, logger *slog.Logger) (*KafkaEventBus, error) {
	if len(cfg.Brokers) == 0 || cfg.Brokers[0] == "" {
		return nil, ErrMissingBrokers
	}

	if cfg.Topic == "" {
		return nil, ErrMissingTopic
	}

	wmLogger := watermill.NewSlogLogger(logger)

	saramaSubscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaSubscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	group := cfg.ConsumerGroup
	if group == "" {
		group = "cg-conductor"
	}

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaSubscriberConfig,
			ConsumerGroup:         group,
			OTELEnabled:           true,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	saramaPublisherConfig := sarama.NewConfig()
	saramaPublisherConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaPublisherConfig,
			OTELEnabled:           true,
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return newKafkaEventBus(publisher, subscriber, cfg, logger), nil
}

func newKafkaEventBus(pub message.Publisher, sub message.Subscriber, cfg Config, logger *slog.Logger) *KafkaEventBus {
	return &KafkaEventBus{
		publisher:  pub,
		subscriber: sub,
		topic:      cfg.Topic,
		retrier:    newRetrier(cfg),
		logger:     logger.With("module", "eventbus", "driver", DriverBroker, "topic", cfg.Topic),
	}
}

func (b *KafkaEventBus) Publish(ctx context.Context, event *models.AnalyticsEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return &PublishError{Attempts: 0, Err: err}
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.Metadata.Set(EventIDMetadataKey, event.EventID)
	msg.Metadata.Set(CategoryMetadataKey, event.Category)
	msg.Metadata.Set(NameMetadataKey, event.Name)

	return b.retrier.do(ctx, func() error {
		return b.publisher.Publish(b.topic, msg)
	})
}

func (b *KafkaEventBus) On(listener Listener) {
	b.listeners = append(b.listeners, listener)
}

// Subscribe bridges the broker topic to local listeners: each consumed
// message is decoded and re-dispatched in listener registration order.
func (b *KafkaEventBus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event := &models.AnalyticsEvent{}

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				b.logger.Error("Failed to decode event payload", "message_id", msg.UUID, "error", err)
				msg.Nack()

				continue
			}

			for _, listener := range b.listeners {
				err := listener(ctx, event)
				if err != nil {
					b.logger.Error("Listener failed", "event_id", event.EventID, "error", err)
				}
			}

			msg.Ack()
		}
	}()

	return nil
}

func (b *KafkaEventBus) Close() error {
	err := b.publisher.Close()
	if err != nil {
		return err
	}

	return b.subscriber.Close()
}
