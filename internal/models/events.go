// Package models defines the wire protocol: one typed payload per event name,
// validated before it reaches the presence protocol.
package models

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Inbound event names (client -> server).
const (
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
)

// Outbound event names (server -> client).
const (
	EventConnection      = "connection"
	EventRoomJoinSuccess = "room_join_success"
	EventRoomJoinFailed  = "room_join_failed"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventRoomList        = "room_list"
	EventReceiveMessage  = "receive_message"
)

var validate = validator.New()

// ClientFrame is the envelope for every inbound message. Data is decoded into
// the payload type matching Event.
type ClientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the envelope for every outbound message.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// JoinRequest is the payload of create_room and join_room.
type JoinRequest struct {
	RoomName string `json:"roomName" validate:"required"`
	UserName string `json:"userName" validate:"required"`
}

func (r JoinRequest) Validate() error {
	return validate.Struct(r)
}

// SendMessageRequest is the payload of send_message.
type SendMessageRequest struct {
	Msg string `json:"msg"`
}

// ConnectionPayload greets a freshly accepted connection.
type ConnectionPayload struct {
	Msg string `json:"msg"`
}

// RoomJoinSuccessPayload acknowledges a successful create/join to the requester.
type RoomJoinSuccessPayload struct {
	RoomName string `json:"roomName"`
}

// RoomJoinFailedPayload reports any create/join failure to the requester.
type RoomJoinFailedPayload struct {
	Msg string `json:"msg"`
}

// UserPresencePayload is shared by user_joined and user_left.
type UserPresencePayload struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

// RoomListPayload carries the current roster of a room.
type RoomListPayload struct {
	RoomName string   `json:"roomName"`
	Users    []string `json:"users"`
}

// ReceiveMessagePayload delivers a chat message to room members.
type ReceiveMessagePayload struct {
	SenderID string `json:"senderId"`
	Sender   string `json:"sender"`
	Msg      string `json:"msg"`
}
