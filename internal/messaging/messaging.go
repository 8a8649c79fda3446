package messaging

import (
	"context"
	"errors"
	"time"

	"price-pipeline/pkg/models"
)

const (
	ArtifactProcessedQueue = "processed_artifacts"
	RetryDelay             = 2 * time.Second
	MaxConnectRetry        = 3
)

var (
	ErrQueueClosed = errors.New("queue is closed")
	ErrQueueFull   = errors.New("queue is full")
)

// Publisher announces finished artifacts to downstream consumers.
type Publisher interface {
	PublishArtifactProcessed(ctx context.Context, payload models.ArtifactProcessedPayload) error

	Close()
}

// Message is one published event as a consumer sees it.
type Message struct {
	Queue   string
	Payload []byte
}
