package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is the push payload sent to list subscribers.
type Event struct {
	Event     string    `json:"event"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateEvent announces that a list changed at updatedAt.
func UpdateEvent(updatedAt time.Time) Event {
	return Event{Event: "update", UpdatedAt: updatedAt}
}

// Hub keeps the live subscribers of each list. It holds no durable state; clients
// re-subscribe when they reconnect.
type Hub struct {
	mu     sync.RWMutex
	lists  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		lists:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Subscribe adds c to the subscribers of its list.
func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	subs, ok := h.lists[c.listID]
	if !ok {
		subs = make(map[*Client]struct{})
		h.lists[c.listID] = subs
	}
	subs[c] = struct{}{}
	h.mu.Unlock()
}

// Unsubscribe removes c and closes its send channel. It is safe to call twice.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if subs, ok := h.lists[c.listID]; ok {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			close(c.send)
		}
		if len(subs) == 0 {
			delete(h.lists, c.listID)
		}
	}
	h.mu.Unlock()
}

// Publish queues ev for every subscriber of the list without blocking. When a subscriber's
// buffer is full its oldest pending payload is dropped, since a newer update supersedes it.
// It returns the number of subscribers the event was queued for.
func (h *Hub) Publish(listID int64, ev Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.lists[listID] {
		if c.offer(data) {
			n++
		}
	}
	return n
}

// Close disconnects every subscriber of the list, e.g. after it was deleted.
func (h *Hub) Close(listID int64) {
	h.mu.Lock()
	for c := range h.lists[listID] {
		close(c.send)
	}
	delete(h.lists, listID)
	h.mu.Unlock()
}

// Drop disconnects userID's subscribers of the list, e.g. after they lost access to it.
func (h *Hub) Drop(listID, userID int64) {
	h.mu.Lock()
	if subs, ok := h.lists[listID]; ok {
		for c := range subs {
			if c.userID == userID {
				delete(subs, c)
				close(c.send)
			}
		}
		if len(subs) == 0 {
			delete(h.lists, listID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) SubscriberCount(listID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lists[listID])
}
