package api

import (
	"sync"

	"github.com/thajpo/ceo-dashboard/internal/router"
)

const subscriberBuffer = 64

// Hub fans router changes out to event-stream clients. Publish never blocks:
// a subscriber that falls behind misses changes and is expected to refetch.
type Hub struct {
	mu   sync.Mutex
	subs map[chan router.Change]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan router.Change]struct{})}
}

func (h *Hub) Publish(c router.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribe returns a channel of changes and a function that releases it.
func (h *Hub) Subscribe() (<-chan router.Change, func()) {
	ch := make(chan router.Change, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
