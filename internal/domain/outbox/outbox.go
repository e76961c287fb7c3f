// Package outbox holds the in-process event contracts between the order
// pipeline and its observers.
package outbox

import "context"

// Event is a lifecycle event such as order.completed or order.failed.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

// Publisher hands an event off without waiting for its handlers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by event name. Handlers for the same name run
// in registration order.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of the in-process queue.
type Bus interface {
	Publisher
	Subscriber
}
