package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishDeliversJSON(t *testing.T) {
	pub, ch, err := NewPublisher(Config{Driver: DriverChannel}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := ch.Subscribe(ctx, TopicEventLifecycle)
	require.NoError(t, err)

	collegeID := int64(3)
	sent := EventTransition{EventID: 7, From: "DRAFT", To: "PENDING_CLUB_LEADER", ActorID: 2, CollegeID: &collegeID}
	require.NoError(t, pub.Publish(ctx, TopicEventLifecycle, sent))

	select {
	case msg := <-messages:
		var got EventTransition
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		msg.Ack()
		assert.Equal(t, sent.EventID, got.EventID)
		assert.Equal(t, "PENDING_CLUB_LEADER", got.To)
		require.NotNil(t, got.CollegeID)
		assert.Equal(t, collegeID, *got.CollegeID)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, pub.Close())
}

func TestConsumeAcksFailedMessages(t *testing.T) {
	pub, ch, err := NewPublisher(Config{Driver: DriverChannel}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan string, 4)
	done, err := Consume(ctx, ch, TopicMaintenance, func(_ context.Context, payload []byte) error {
		var report MaintenanceReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return err
		}
		seen <- report.Job
		return errors.New("handler failure")
	}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, TopicMaintenance, MaintenanceReport{Job: "first"}))
	require.NoError(t, pub.Publish(ctx, TopicMaintenance, MaintenanceReport{Job: "second"}))

	// delivery order across publishes is not guaranteed by gochannel
	assert.ElementsMatch(t, []string{"first", "second"}, []string{<-seen, <-seen})

	cancel()
	require.NoError(t, pub.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestUnknownDriver(t *testing.T) {
	_, _, err := NewPublisher(Config{Driver: "carrier-pigeon"}, zerolog.Nop())
	assert.Error(t, err)

	_, _, err = NewPublisher(Config{Driver: DriverKafka}, zerolog.Nop())
	assert.Error(t, err)
}
