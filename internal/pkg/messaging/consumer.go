package messaging

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// Handler processes one message payload
type Handler func(ctx context.Context, payload []byte) error

// Consume subscribes to topic and runs handle for each message in a background
// goroutine until ctx is done or the subscriber is closed. Messages are always
// acked; handler errors are logged, never redelivered.
func Consume(ctx context.Context, sub message.Subscriber, topic string, handle Handler, logger zerolog.Logger) (<-chan struct{}, error) {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			if err := handle(msg.Context(), msg.Payload); err != nil {
				logger.Warn().Err(err).Str("topic", topic).Str("messageID", msg.UUID).Msg("Message handler failed")
			}
			msg.Ack()
		}
	}()
	return done, nil
}

// LogHandler writes each payload to the logger at info level
func LogHandler(topic string, logger zerolog.Logger) Handler {
	return func(_ context.Context, payload []byte) error {
		logger.Info().Str("topic", topic).RawJSON("payload", payload).Msg("Notification")
		return nil
	}
}
