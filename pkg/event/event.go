package event

import "context"

/**
 * @file: event.go
 * @description: event contracts
 */

type Event interface {
	// EventName returns the name handlers subscribe to
	EventName() string
	// EventType returns the category of the event
	EventType() string
}

type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}
