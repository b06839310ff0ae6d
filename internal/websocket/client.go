package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/internal/models"
	"chat-relay/internal/presence"
	"chat-relay/pkg/logger"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client pumps frames between one websocket connection and the presence
// protocol. Its session id is assigned here and stable for the connection's
// lifetime.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	id       string
	presence *presence.Service
}

func NewClient(hub *Hub, conn *websocket.Conn, svc *presence.Service, sendBuffer int) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		id:       uuid.NewString(),
		presence: svc,
	}
}

func (c *Client) ID() string {
	return c.id
}

// ReadPump reads inbound frames and dispatches them to the presence protocol.
// On any read error the connection is treated as disconnected.
func (c *Client) ReadPump() {
	defer func() {
		c.presence.Disconnect(c.id)
		c.hub.Unregister(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}
		c.dispatch(message)
	}
}

// dispatch decodes one client frame and routes it by event name. Garbage
// frames and unknown events get the same failure answer as an invalid
// request; the connection stays open.
func (c *Client) dispatch(message []byte) {
	var frame models.ClientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		logger.Debug("Client %s sent malformed frame: %v", c.id, err)
		c.rejectFrame()
		return
	}

	switch frame.Event {
	case models.EventCreateRoom:
		var req models.JoinRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.rejectFrame()
			return
		}
		if err := c.presence.CreateRoom(c.id, req); err != nil {
			logger.Debug("Client %s create_room failed: %v", c.id, err)
		}

	case models.EventJoinRoom:
		var req models.JoinRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.rejectFrame()
			return
		}
		if err := c.presence.JoinRoom(c.id, req); err != nil {
			logger.Debug("Client %s join_room failed: %v", c.id, err)
		}

	case models.EventLeaveRoom:
		c.presence.LeaveRoom(c.id)

	case models.EventSendMessage:
		var req models.SendMessageRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.rejectFrame()
			return
		}
		c.presence.SendMessage(c.id, req)

	default:
		logger.Debug("Client %s sent unknown event %q", c.id, frame.Event)
		c.rejectFrame()
	}
}

func (c *Client) rejectFrame() {
	c.hub.Send(c.id, models.ServerEvent{
		Event: models.EventRoomJoinFailed,
		Data:  models.RoomJoinFailedPayload{Msg: presence.ErrInvalidRequest.Error()},
	})
}

// WritePump drains the send channel to the connection and keeps it alive with
// pings. A closed send channel means the hub evicted the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
