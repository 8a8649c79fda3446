package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"price-pipeline/pkg/models"
)

const InMemoryQueueCapacity = 100

// InMemoryQueue is a Publisher for local runs and tests. Published messages
// are buffered until read from Messages; publishing to a full buffer fails
// with ErrQueueFull instead of blocking.
type InMemoryQueue struct {
	lock     sync.Mutex
	messages chan Message
}

var _ Publisher = (*InMemoryQueue)(nil)

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		messages: make(chan Message, InMemoryQueueCapacity),
	}
}

func (q *InMemoryQueue) publish(queue string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.lock.Lock()
	defer q.lock.Unlock()
	if q.messages == nil {
		return ErrQueueClosed
	}
	select {
	case q.messages <- Message{Queue: queue, Payload: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *InMemoryQueue) PublishArtifactProcessed(ctx context.Context, payload models.ArtifactProcessedPayload) error {
	return q.publish(ArtifactProcessedQueue, payload)
}

func (q *InMemoryQueue) Messages() <-chan Message {
	return q.messages
}

func (q *InMemoryQueue) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.messages != nil {
		close(q.messages)
		q.messages = nil
	}
}
