// Package messaging publishes engine notifications over watermill. The
// default transport is an in-process go channel; Kafka is used when brokers
// are configured.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Topics
const (
	TopicEventLifecycle = "campus.events.lifecycle"
	TopicMaintenance    = "campus.maintenance"
)

// Drivers
const (
	DriverChannel = "channel"
	DriverKafka   = "kafka"
)

// Config selects and configures the transport
type Config struct {
	Driver  string
	Brokers []string
}

// Publisher serializes payloads to JSON and hands them to watermill
type Publisher struct {
	pub    message.Publisher
	logger zerolog.Logger
}

// NewPublisher builds the publisher for cfg. With the channel driver the
// returned GoChannel can also be used to subscribe; it is nil for Kafka.
func NewPublisher(cfg Config, logger zerolog.Logger) (*Publisher, *gochannel.GoChannel, error) {
	wmLogger := NewLoggerAdapter(logger)

	switch cfg.Driver {
	case "", DriverChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		return &Publisher{pub: ch, logger: logger}, ch, nil
	case DriverKafka:
		if len(cfg.Brokers) == 0 {
			return nil, nil, fmt.Errorf("kafka messaging requires at least one broker")
		}
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		return &Publisher{pub: pub, logger: logger}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown messaging driver %q", cfg.Driver)
	}
}

// Publish sends payload as JSON on topic
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	p.logger.Debug().Str("topic", topic).Str("messageID", msg.UUID).Msg("Message published")
	return nil
}

// Close releases the underlying transport
func (p *Publisher) Close() error {
	return p.pub.Close()
}
