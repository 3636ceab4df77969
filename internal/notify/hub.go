// Package notify fans order-status change events out to in-process
// subscribers.  A checkout flow waiting for restaurant confirmation
// subscribes to its order id; the RabbitMQ consumer feeds every
// received event into the hub.  Subscriptions return an unsubscribe
// function that must be called on teardown so abandoned waits do not
// leak.
package notify

import "sync"

// StatusChange is one order-status transition observed by the hub.
type StatusChange struct {
	OrderID   uint64 `json:"pedido_id"`
	OldEstado string `json:"estado_anterior"`
	NewEstado string `json:"estado_nuevo"`
	ChangedAt string `json:"changed_at"`
}

// Hub dispatches status changes to subscribers by order id.  It is
// safe for concurrent use.
type Hub struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]map[uint64]chan StatusChange // order id -> sub id -> channel
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[uint64]chan StatusChange)}
}

// Subscribe registers interest in one order's status changes.  The
// returned channel is buffered; events arriving while the buffer is
// full are dropped for that subscriber (the current order state can
// always be re-read from the API).  The unsubscribe function closes
// the channel and releases the registration; calling it twice is
// safe.
func (h *Hub) Subscribe(orderID uint64) (<-chan StatusChange, func()) {
	ch := make(chan StatusChange, 4)
	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[uint64]chan StatusChange)
	}
	h.subs[orderID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if m, ok := h.subs[orderID]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, orderID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a status change to every subscriber of its order.
func (h *Hub) Publish(ev StatusChange) {
	h.mu.Lock()
	targets := make([]chan StatusChange, 0, len(h.subs[ev.OrderID]))
	for _, ch := range h.subs[ev.OrderID] {
		targets = append(targets, ch)
	}
	h.mu.Unlock()
	for _, ch := range targets {
		select {
		case ch <- ev:
		default: // slow subscriber, drop
		}
	}
}

// Subscribers reports how many subscriptions an order currently has.
func (h *Hub) Subscribers(orderID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orderID])
}
