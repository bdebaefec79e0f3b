package realtime

import "sync"

// Event is a row-level change notification. Consumers re-fetch and
// reclassify on receipt; the payload intentionally carries no row data.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	RowID string `json:"row_id"`
}

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

const subscriberBuffer = 16

// Hub fans change events out to in-process subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. The returned cancel func must be
// called when the consumer goes away; it closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers e to every subscriber. Slow consumers with a full
// buffer miss the event rather than blocking the publisher; a missed
// event only delays their next re-fetch.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
