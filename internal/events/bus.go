package events

import (
	"sync"

	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

// Handler processes an event. Returning an error logs it but does not stop
// dispatch to later subscribers.
type Handler func(Event) error

// Bus is a synchronous in-process event bus.
// Subscribers are invoked in registration order on the publisher's goroutine,
// which preserves the single-writer, arrival-order apply model the state
// aggregate assumes.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	catchAll []Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler that receives every event regardless of
// type. Catch-all handlers run after type-specific ones. The session manager
// and the recorder subscribe this way.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catchAll = append(b.catchAll, h)
}

// Publish dispatches an event to all registered handlers for its type.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	catchAll := b.catchAll
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(e); err != nil {
			telemetry.Warnf("bus: handler for %q failed: %v", e.Type, err)
		}
	}
	for _, h := range catchAll {
		if err := h(e); err != nil {
			telemetry.Warnf("bus: catch-all handler failed on %q: %v", e.Type, err)
		}
	}
}
