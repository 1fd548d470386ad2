// Package events fans viewer events out to websocket subscribers.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// queueSize is how far a subscriber can fall behind before its events are
// dropped.
const queueSize = 100

// Hub holds the set of subscribers keyed by id.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan string
	dropped atomic.Uint64
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{
		subs: make(map[string]chan string),
	}
}

// Subscribe registers id and returns the channel its events arrive on.
// Subscribing an id twice returns the same channel.
func (h *Hub) Subscribe(id string) <-chan string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		return ch
	}

	ch := make(chan string, queueSize)
	h.subs[id] = ch

	return ch
}

// Unsubscribe removes id and closes its channel.
func (h *Hub) Unsubscribe(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return fmt.Errorf("subscriber %q not found", id)
	}

	delete(h.subs, id)
	close(ch)

	return nil
}

// Close unsubscribes everyone. Readers see their channel closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

// Publish hands msg to every subscriber with room in its queue. A full
// queue loses the message and bumps the dropped count.
func (h *Hub) Publish(msg string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// Dropped returns how many messages were lost to full queues.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
