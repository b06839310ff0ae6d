package presence

import "chat-relay/pkg/logger"

// Observer is notified after each state transition, outside the mutation path.
type Observer interface {
	RoomCreated(room string)
	RoomClosed(room string)
	SessionJoined(room, id, name string)
	SessionLeft(room, id, name string)
}

// LogObserver writes transitions to the process log.
type LogObserver struct{}

func NewLogObserver() LogObserver { return LogObserver{} }

func (LogObserver) RoomCreated(room string) {
	logger.Info("Room %s created", room)
}

func (LogObserver) RoomClosed(room string) {
	logger.Info("Room %s closed", room)
}

func (LogObserver) SessionJoined(room, id, name string) {
	logger.Info("User %s (%s) joined room %s", name, id, room)
}

func (LogObserver) SessionLeft(room, id, name string) {
	logger.Info("User %s (%s) left room %s", name, id, room)
}

// NopObserver ignores all transitions.
type NopObserver struct{}

func (NopObserver) RoomCreated(string)           {}
func (NopObserver) RoomClosed(string)            {}
func (NopObserver) SessionJoined(_, _, _ string) {}
func (NopObserver) SessionLeft(_, _, _ string)   {}
