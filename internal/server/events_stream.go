package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/events"
)

// clientBuffer is the per-connection event buffer. A client that falls
// this far behind misses events instead of stalling the bus.
const clientBuffer = 100

// EventsStreamHandler streams bus events to clients over SSE. Every event
// type goes out on the same stream; clients filter by the event_type
// field. The bus has no unsubscribe, so the handler holds exactly one
// subscription per event type for its lifetime and fans events out to a
// registry of per-connection channels; connections register on accept and
// remove themselves on disconnect.
type EventsStreamHandler struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[int]chan *events.Event
	nextID  int
}

// NewEventsStreamHandler creates the SSE stream handler and takes its
// bus subscriptions
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	h := &EventsStreamHandler{
		log:     log.With().Str("handler", "events_stream").Logger(),
		clients: make(map[int]chan *events.Event),
	}
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, h.dispatch)
	}
	return h
}

// dispatch fans an event out to every connected client. It runs on the
// emitter's goroutine and must never block.
func (h *EventsStreamHandler) dispatch(event *events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *EventsStreamHandler) register() (int, chan *events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan *events.Event, clientBuffer)
	h.clients[id] = ch
	return id, ch
}

func (h *EventsStreamHandler) unregister(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// clientCount reports the number of connected stream clients
func (h *EventsStreamHandler) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP handles an SSE connection
// GET /api/events/stream
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch := h.register()
	defer h.unregister(id)

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("SSE client connected")

	// Initial comment keeps proxies from buffering the response
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug().Str("remote", r.RemoteAddr).Msg("SSE client disconnected")
			return
		case event := <-ch:
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to marshal event for SSE")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
