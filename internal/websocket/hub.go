// Package websocket is the transport layer: it owns the live connections and
// delivers encoded events to them. It holds no room state; recipient sets are
// decided by the presence layer.
package websocket

import (
	"encoding/json"
	"sync"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"
)

// Hub is the connection registry keyed by session id. It implements the
// presence transport contract: Send is non-blocking and best-effort, and a
// client whose buffer is full is evicted rather than stalling the sender.
type Hub struct {
	mutex   sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mutex.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mutex.Unlock()
	logger.Info("Client %s connected. Total clients: %d", client.id, count)
}

// Unregister drops the client and closes its send channel exactly once. The
// channel is closed only after the client left the map, so no Send can still
// hold a reference to it.
func (h *Hub) Unregister(id string) {
	h.mutex.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	count := len(h.clients)
	h.mutex.Unlock()

	if ok {
		close(client.send)
		logger.Info("Client %s disconnected. Total clients: %d", id, count)
	}
}

// Send encodes the event and queues it for one connection. Unknown ids are
// ignored; a full send buffer evicts the client.
func (h *Hub) Send(sessionID string, event models.ServerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event.Event, err)
		return
	}

	if full := h.trySend(sessionID, data); full {
		logger.Error("Client %s send buffer full, evicting", sessionID)
		h.Unregister(sessionID)
	}
}

// trySend queues data while holding the read lock, so the channel cannot be
// closed out from under the send. Reports whether the client was found with a
// full buffer.
func (h *Hub) trySend(sessionID string, data []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	client, ok := h.clients[sessionID]
	if !ok {
		return false
	}
	select {
	case client.send <- data:
		return false
	default:
		return true
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
