package integrationtests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ftai-trainer/internal/messaging"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	url := setupRabbitMQContainer(t, ctx)

	publisher, err := messaging.NewRabbitMQPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	payload := messaging.TrainingCompletedPayload{
		RunId:       uuid.New(),
		ProjectId:   "project-1",
		ProjectName: "Fool the AI",
		IterationId: "iteration-1",
		ImageCount:  3,
		CompletedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, publisher.PublishTrainingCompleted(ctx, payload))

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	deliveries, err := ch.Consume(messaging.TrainingCompletedQueue, "", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case msg := <-deliveries:
		var received messaging.TrainingCompletedPayload
		require.NoError(t, json.Unmarshal(msg.Body, &received))
		assert.Equal(t, payload.RunId, received.RunId)
		assert.Equal(t, payload.IterationId, received.IterationId)
		assert.True(t, payload.CompletedAt.Equal(received.CompletedAt))
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for training completed message")
	}
}
