package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (eb *EventBus) RegisterHandler(eventName string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventName] = append(eb.handlers[eventName], handler)
}

// Publish delivers the event to its handlers and then to wildcard handlers.
// Every handler runs; their errors are combined.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	named := eb.handlers[event.EventName()]
	all := eb.handlers[Wildcard]
	handlers := make([]EventHandler, 0, len(named)+len(all))
	handlers = append(handlers, named...)
	handlers = append(handlers, all...)
	eb.mu.RUnlock()

	var errs error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", event.EventName(), err))
		}
	}
	return errs
}

// HandlerCount returns how many handlers would receive the named event.
func (eb *EventBus) HandlerCount(eventName string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventName]) + len(eb.handlers[Wildcard])
}
