// Package eventbus carries business events in and execution outcomes out.
package eventbus

import (
	"context"

	"github.com/chantierpro/automation/pkg/events"
)

// Event is any message published on events.Topic. Its type selects the
// handler on the receiving side.
type Event interface {
	GetType() events.EventType
}

// EventPublisher is what the dispatcher needs to report execution outcomes.
// key partitions the topic; the dispatcher uses the rule id so that outcomes
// of one rule stay ordered.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventHandler receives the decoded event as a pointer to its concrete type.
// A returned error requests redelivery.
type EventHandler func(ctx context.Context, event any) error

// EventSubscriber is what the listener needs to consume business events.
// Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
