// Package pubsub provides a small typed publish/subscribe broker used to fan
// log lines and file change notifications out to the UI.
package pubsub

import (
	"context"
	"time"
)

// EventType labels what happened to the payload.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event wraps a payload with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels bound to a context.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher sends events to every current subscriber.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
