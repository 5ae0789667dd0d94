package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event represents a system event with typed data
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// Handler is an event callback. Handlers run synchronously on the
// emitter's goroutine and must not block; anything slow should hand off
// to its own goroutine or a buffered channel.
type Handler func(event *Event)

// Bus is a fan-out publish/subscribe hub for system events
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type. There is no
// unsubscribe: subscriptions live for the bus lifetime, and the bus is
// torn down with the session.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to every subscriber of its type. Delivery is
// at-least-once per emit; a panicking handler is isolated so it cannot
// take down the emitter.
func (b *Bus) Emit(eventType EventType, module string, data EventData) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	}

	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}

	if b.log.GetLevel() <= zerolog.DebugLevel {
		eventJSON, _ := json.Marshal(event)
		b.log.Debug().
			Str("event_type", string(eventType)).
			Str("module", module).
			RawJSON("event", eventJSON).
			Msg("Event emitted")
	}
}

func (b *Bus) safeCall(handler Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}
