package notification

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub fans freshly stored inbox entries out to live subscribers.
// Slow subscribers miss entries rather than block the publisher; the inbox
// collection stays the source of truth.
type Hub struct {
	mu   sync.RWMutex
	subs map[primitive.ObjectID]map[chan Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[primitive.ObjectID]map[chan Notification]struct{})}
}

// Subscribe registers a listener for userID. The returned cancel func must be
// called once the listener is done.
func (h *Hub) Subscribe(userID primitive.ObjectID) (<-chan Notification, func()) {
	ch := make(chan Notification, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Notification]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish returns how many subscribers received n.
func (h *Hub) Publish(n Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
			sent++
		default:
		}
	}
	return sent
}

// Subscribers reports the live listener count for userID.
func (h *Hub) Subscribers(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
