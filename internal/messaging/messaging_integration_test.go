package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"price-pipeline/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

func TestPublishArtifactProcessed(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rabbitmqContainer, err := rabbitmq.Run(ctx, "rabbitmq:3.12.11-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(rabbitmqContainer); err != nil {
			t.Logf("failed to terminate RabbitMQ container: %v", err)
		}
	})

	connStr, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get RabbitMQ AMQP URL")

	publisher, err := NewRabbitMQPublisher(connStr)
	require.NoError(t, err)
	defer publisher.Close()

	payload := models.ArtifactProcessedPayload{
		LedgerId:     uuid.New(),
		WorkflowName: "glue_workflow",
		RunId:        "wr_0123",
		SourceBucket: "raw-data-coffee",
		SourceKey:    "prices.csv",
		DestBucket:   "processed-data-coffee",
		DestKey:      "coffee_data.parquet",
		RowsIn:       4,
		RowsOut:      3,
	}
	require.NoError(t, publisher.PublishArtifactProcessed(ctx, payload))

	conn, err := connectToRabbitMQ(connStr)
	require.NoError(t, err)
	defer conn.Close()

	channel, err := conn.Channel()
	require.NoError(t, err)
	defer channel.Close()

	msgs, err := channel.Consume(ArtifactProcessedQueue, "test-consumer", false, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-msgs:
		assert.Equal(t, "application/json", d.ContentType)

		var got models.ArtifactProcessedPayload
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, payload, got)
		require.NoError(t, d.Ack(false))
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}
