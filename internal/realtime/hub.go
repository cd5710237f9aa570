package realtime

import (
	"sync"

	"nego/internal/domain"
	"nego/internal/logger"
	"nego/internal/metrics"
)

// Hub fans change events out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.RealtimeConnections.Inc()
	logger.Debug("realtime client registered", "user_id", c.UserID, "clients", n)
}

// Unregister drops the client and every subscription it held.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.clearSubscriptions()
	metrics.RealtimeConnections.Dec()
	logger.Debug("realtime client unregistered", "user_id", c.UserID)
}

// Broadcast delivers ev on every subscription that matches it.
func (h *Hub) Broadcast(ev domain.ChangeEvent) {
	metrics.RealtimeEvents.WithLabelValues(ev.Table).Inc()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		for _, topic := range c.matching(ev) {
			e := redact(ev, c.UserID, c.Role)
			c.trySend(encode(ServerMessage{Type: MsgChange, Topic: topic, Payload: &e}))
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
