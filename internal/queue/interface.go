package queue

import (
	"context"
)

// Publisher sends post events. Mutations publish after they commit; a publish
// failure never undoes the mutation.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// MessageInterface is a consumed event awaiting acknowledgement.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
}

// EventQueue is the broker surface used by the server and the worker.
type EventQueue interface {
	Publisher

	// Consume delivers events from the feed queue until ctx is cancelled.
	// Prefetch bounds how many unacknowledged messages the consumer holds.
	// The caller must Ack or Nack every message.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error

	HealthCheck(ctx context.Context) error
}

// NoopPublisher drops events. Used when RabbitMQ is not configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, *Event) error { return nil }

var (
	_ Publisher  = NoopPublisher{}
	_ EventQueue = (*RabbitMQQueue)(nil)
)
