package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chat-relay/internal/presence"
	ws "chat-relay/internal/websocket"
	"chat-relay/pkg/logger"
)

type WebSocketHandlers struct {
	presence   *presence.Service
	hub        *ws.Hub
	sendBuffer int
	upgrader   websocket.Upgrader
}

func NewWebSocketHandlers(svc *presence.Service, hub *ws.Hub, sendBuffer int) *WebSocketHandlers {
	return &WebSocketHandlers{
		presence:   svc,
		hub:        hub,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket upgrades the connection, registers it with the hub, and
// starts its pumps. The session is greeted once and stays unjoined until its
// first successful create/join.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, h.presence, h.sendBuffer)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.presence.Connected(client.ID())
}
