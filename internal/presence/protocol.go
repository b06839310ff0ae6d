package presence

import (
	"sync"

	"chat-relay/internal/models"
)

// ReservedName can never be taken as a display name; the server speaks as it.
const ReservedName = "SERVER"

// EventSink receives the outbound events produced by protocol transitions.
// Implemented by Broadcaster.
type EventSink interface {
	EmitToOne(sessionID string, event models.ServerEvent)
	EmitToRoom(room string, event models.ServerEvent, excludeID string)
}

// Service is the presence protocol: the state machine driving the session
// table and room directory. Every inbound event mutates both tables as one
// atomic unit under mu; the sink is invoked while the lock is held, so
// recipient sets always reflect the state the event produced. Sink delivery
// must therefore never block.
type Service struct {
	mu        sync.Mutex
	sessions  *SessionTable
	directory *RoomDirectory
	sink      EventSink
	observer  Observer
}

func NewService(sessions *SessionTable, directory *RoomDirectory, sink EventSink, observer Observer) *Service {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Service{
		sessions:  sessions,
		directory: directory,
		sink:      sink,
		observer:  observer,
	}
}

// Connected greets a freshly accepted connection. No table state changes until
// the first successful join.
func (s *Service) Connected(id string) {
	s.sink.EmitToOne(id, models.ServerEvent{
		Event: models.EventConnection,
		Data:  models.ConnectionPayload{Msg: "Socket Connection Successful"},
	})
}

// CreateRoom creates the room and joins the requester to it. The reserved-name
// check runs before the room is inserted so a failed create never leaves an
// empty room in the directory.
func (s *Service) CreateRoom(id string, req models.JoinRequest) error {
	if err := req.Validate(); err != nil {
		s.rejectJoin(id, ErrInvalidRequest)
		return ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.UserName == ReservedName {
		s.rejectJoin(id, ErrNameTaken)
		return ErrNameTaken
	}
	if !s.directory.CreateRoom(req.RoomName) {
		s.rejectJoin(id, ErrRoomAlreadyExists)
		return ErrRoomAlreadyExists
	}
	s.observer.RoomCreated(req.RoomName)

	s.commitJoin(id, req)
	return nil
}

// JoinRoom adds the requester to an existing room. A duplicate join of the
// same room fails exactly like a missing room; a session joined elsewhere is
// moved, leaving its old room first.
func (s *Service) JoinRoom(id string, req models.JoinRequest) error {
	if err := req.Validate(); err != nil {
		s.rejectJoin(id, ErrInvalidRequest)
		return ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.UserName == ReservedName {
		s.rejectJoin(id, ErrNameTaken)
		return ErrNameTaken
	}
	if !s.directory.Exists(req.RoomName) || s.directory.HasMember(req.RoomName, id) {
		s.rejectJoin(id, ErrRoomNotFound)
		return ErrRoomNotFound
	}
	for _, name := range s.directory.Roster(req.RoomName, s.sessions) {
		if name == req.UserName {
			s.rejectJoin(id, ErrNameTaken)
			return ErrNameTaken
		}
	}

	s.commitJoin(id, req)
	return nil
}

// LeaveRoom removes the session from its room, if any. Safe to call twice;
// the second call is a silent no-op.
func (s *Service) LeaveRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked(id)
}

// Disconnect is the transport-closed notification. Identical to LeaveRoom and
// idempotent with any explicit leave that preceded it.
func (s *Service) Disconnect(id string) {
	s.LeaveRoom(id)
}

// SendMessage fans the text out to every member of the sender's room,
// including the sender. A session with no room is a silent no-op.
func (s *Service) SendMessage(id string, req models.SendMessageRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	s.sink.EmitToRoom(sess.RoomName, models.ServerEvent{
		Event: models.EventReceiveMessage,
		Data: models.ReceiveMessagePayload{
			SenderID: id,
			Sender:   sess.DisplayName,
			Msg:      req.Msg,
		},
	}, "")
}

// commitJoin performs the shared success path of create_room and join_room.
// Callers hold mu and have validated the request.
func (s *Service) commitJoin(id string, req models.JoinRequest) {
	s.leaveLocked(id)

	s.directory.AddMember(req.RoomName, id)
	s.sessions.Register(id, req.UserName, req.RoomName)
	s.observer.SessionJoined(req.RoomName, id, req.UserName)

	s.sink.EmitToOne(id, models.ServerEvent{
		Event: models.EventRoomJoinSuccess,
		Data:  models.RoomJoinSuccessPayload{RoomName: req.RoomName},
	})
	s.sink.EmitToRoom(req.RoomName, models.ServerEvent{
		Event: models.EventUserJoined,
		Data:  models.UserPresencePayload{ID: id, UserName: req.UserName},
	}, "")
	s.emitRosterLocked(req.RoomName)
}

// leaveLocked removes the session from its current room and notifies the
// remaining members. Caller holds mu.
func (s *Service) leaveLocked(id string) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return
	}

	s.sessions.Unregister(id)
	s.directory.RemoveMember(sess.RoomName, id)
	s.observer.SessionLeft(sess.RoomName, id, sess.DisplayName)

	if !s.directory.Exists(sess.RoomName) {
		s.observer.RoomClosed(sess.RoomName)
		return
	}
	s.sink.EmitToRoom(sess.RoomName, models.ServerEvent{
		Event: models.EventUserLeft,
		Data:  models.UserPresencePayload{ID: id, UserName: sess.DisplayName},
	}, "")
	s.emitRosterLocked(sess.RoomName)
}

func (s *Service) emitRosterLocked(room string) {
	s.sink.EmitToRoom(room, models.ServerEvent{
		Event: models.EventRoomList,
		Data: models.RoomListPayload{
			RoomName: room,
			Users:    s.directory.Roster(room, s.sessions),
		},
	}, "")
}

func (s *Service) rejectJoin(id string, err error) {
	s.sink.EmitToOne(id, models.ServerEvent{
		Event: models.EventRoomJoinFailed,
		Data:  models.RoomJoinFailedPayload{Msg: err.Error()},
	})
}
