package presence

import "chat-relay/internal/models"

// Transport delivers one encoded event to one connection. Implemented by the
// websocket hub; delivery is best-effort and must not block.
type Transport interface {
	Send(sessionID string, event models.ServerEvent)
}

// Broadcaster computes the recipient set for each outbound event and hands
// delivery to the transport. It reads the directory but never mutates it, and
// is only invoked by the Service while the state lock is held.
type Broadcaster struct {
	directory *RoomDirectory
	transport Transport
}

func NewBroadcaster(directory *RoomDirectory, transport Transport) *Broadcaster {
	return &Broadcaster{directory: directory, transport: transport}
}

func (b *Broadcaster) EmitToOne(sessionID string, event models.ServerEvent) {
	b.transport.Send(sessionID, event)
}

// EmitToRoom delivers event to every current member of room. A non-empty
// excludeID skips the originating session. Unknown rooms fan out to nobody.
func (b *Broadcaster) EmitToRoom(room string, event models.ServerEvent, excludeID string) {
	for _, id := range b.directory.Members(room) {
		if excludeID != "" && id == excludeID {
			continue
		}
		b.transport.Send(id, event)
	}
}
