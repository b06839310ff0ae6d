// Package presence implements the room/session state machine: who is connected,
// which room each connection belongs to, and who receives which event.
package presence

// Session is one live connection's joined state. The id is assigned by the
// transport and stable for the connection's lifetime; the display name is fixed
// at join time.
type Session struct {
	ID          string
	RoomName    string
	DisplayName string
}

// SessionTable maps connection ids to their joined room and display name.
// It is not synchronized; the Service serializes all access.
type SessionTable struct {
	sessions map[string]Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]Session)}
}

// Get returns the session for id. A false second value means the connection is
// not currently joined anywhere.
func (t *SessionTable) Get(id string) (Session, bool) {
	s, ok := t.sessions[id]
	return s, ok
}

func (t *SessionTable) Register(id, displayName, roomName string) {
	t.sessions[id] = Session{ID: id, RoomName: roomName, DisplayName: displayName}
}

func (t *SessionTable) Unregister(id string) {
	delete(t.sessions, id)
}

// DisplayName resolves a connection id to its display name, for roster reads.
func (t *SessionTable) DisplayName(id string) (string, bool) {
	s, ok := t.sessions[id]
	if !ok {
		return "", false
	}
	return s.DisplayName, true
}
