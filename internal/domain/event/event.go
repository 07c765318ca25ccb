package event

import (
	"context"
	"time"
)

// Event is any domain event with a name identifier and a discriminating key.
// Name plus key form the deduplication identity used by the bus throttle.
type Event interface {
	EventName() string
	Key() string
}

// Throttleable marks advisory events that the bus may drop when emitted
// again within the throttle window. Events that do not implement it are
// correctness-critical and always bypass the throttle.
type Throttleable interface {
	Event
	// ThrottleHint returns the minimum interval between emissions for the
	// same name+key. Zero means use the bus default.
	ThrottleHint() time.Duration
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
