package presence

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/models"
)

type sinkEvent struct {
	target  string // session id for single emits, empty for room emits
	room    string
	exclude string
	event   models.ServerEvent
}

type recordingSink struct {
	events []sinkEvent
}

func (r *recordingSink) EmitToOne(sessionID string, event models.ServerEvent) {
	r.events = append(r.events, sinkEvent{target: sessionID, event: event})
}

func (r *recordingSink) EmitToRoom(room string, event models.ServerEvent, excludeID string) {
	r.events = append(r.events, sinkEvent{room: room, exclude: excludeID, event: event})
}

func (r *recordingSink) byName(name string) []sinkEvent {
	return lo.Filter(r.events, func(e sinkEvent, _ int) bool {
		return e.event.Event == name
	})
}

func (r *recordingSink) reset() {
	r.events = nil
}

func newTestService() (*Service, *recordingSink) {
	sink := &recordingSink{}
	svc := NewService(NewSessionTable(), NewRoomDirectory(), sink, nil)
	return svc, sink
}

// checkInvariants asserts the four global invariants of the data model.
func checkInvariants(t *testing.T, svc *Service) {
	t.Helper()

	for id, sess := range svc.sessions.sessions {
		require.True(t, svc.directory.HasMember(sess.RoomName, id),
			"session %s claims room %s but is not a member", id, sess.RoomName)
		require.NotEqual(t, ReservedName, sess.DisplayName)
	}

	for room, members := range svc.directory.rooms {
		require.NotEmpty(t, members, "room %s exists with no members", room)
		seen := make(map[string]bool)
		for _, id := range members {
			name, ok := svc.sessions.DisplayName(id)
			require.True(t, ok, "member %s of room %s has no session", id, room)
			require.False(t, seen[name], "duplicate display name %q in room %s", name, room)
			seen[name] = true
		}
	}
}

func join(room, user string) models.JoinRequest {
	return models.JoinRequest{RoomName: room, UserName: user}
}

func TestConnectedGreetsSession(t *testing.T) {
	svc, sink := newTestService()

	svc.Connected("s1")

	require.Len(t, sink.events, 1)
	require.Equal(t, "s1", sink.events[0].target)
	require.Equal(t, models.EventConnection, sink.events[0].event.Event)
}

func TestCreateRoomJoinsCreator(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "alice")))
	checkInvariants(t, svc)

	require.Len(t, sink.byName(models.EventRoomJoinSuccess), 1)
	require.Len(t, sink.byName(models.EventUserJoined), 1)

	lists := sink.byName(models.EventRoomList)
	require.Len(t, lists, 1)
	require.Equal(t, "r", lists[0].room)
	require.Equal(t, []string{"alice"}, lists[0].event.Data.(models.RoomListPayload).Users)
}

func TestCreateRoomTwiceFails(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	sink.reset()

	err := svc.CreateRoom("s2", join("r", "b"))
	require.ErrorIs(t, err, ErrRoomAlreadyExists)
	checkInvariants(t, svc)

	require.Len(t, svc.directory.Members("r"), 1)
	failed := sink.byName(models.EventRoomJoinFailed)
	require.Len(t, failed, 1)
	require.Equal(t, "s2", failed[0].target)
}

func TestCreateRoomReservedNameLeavesNoRoom(t *testing.T) {
	svc, _ := newTestService()

	err := svc.CreateRoom("s1", join("r", ReservedName))
	require.ErrorIs(t, err, ErrNameTaken)
	require.False(t, svc.directory.Exists("r"))
	checkInvariants(t, svc)
}

func TestJoinRoomValidation(t *testing.T) {
	svc, sink := newTestService()

	require.ErrorIs(t, svc.JoinRoom("s1", join("", "a")), ErrInvalidRequest)
	require.ErrorIs(t, svc.JoinRoom("s1", join("r", "")), ErrInvalidRequest)
	require.ErrorIs(t, svc.CreateRoom("s1", join("", "a")), ErrInvalidRequest)
	require.Len(t, sink.byName(models.EventRoomJoinFailed), 3)
	checkInvariants(t, svc)
}

func TestJoinMissingRoomFails(t *testing.T) {
	svc, _ := newTestService()

	require.ErrorIs(t, svc.JoinRoom("s1", join("nope", "a")), ErrRoomNotFound)
	checkInvariants(t, svc)
}

func TestDuplicateJoinSameSessionFails(t *testing.T) {
	svc, _ := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	err := svc.JoinRoom("s1", join("r", "a"))
	require.ErrorIs(t, err, ErrRoomNotFound)
	require.Len(t, svc.directory.Members("r"), 1)
	checkInvariants(t, svc)
}

func TestDisplayNameUniquePerRoom(t *testing.T) {
	svc, _ := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	err := svc.JoinRoom("s2", join("r", "a"))
	require.ErrorIs(t, err, ErrNameTaken)
	require.Len(t, svc.directory.Members("r"), 1)
	checkInvariants(t, svc)
}

func TestReservedNameAlwaysRejected(t *testing.T) {
	svc, _ := newTestService()

	// Room does not exist yet: still NameTaken, not RoomNotFound.
	require.ErrorIs(t, svc.JoinRoom("s1", join("r", ReservedName)), ErrNameTaken)

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	require.ErrorIs(t, svc.JoinRoom("s2", join("r", ReservedName)), ErrNameTaken)
	checkInvariants(t, svc)
}

func TestJoinBroadcastsRosterInJoinOrder(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("x", join("r", "xena")))
	require.NoError(t, svc.JoinRoom("y", join("r", "yuri")))
	sink.reset()

	require.NoError(t, svc.JoinRoom("s", join("r", "sam")))
	checkInvariants(t, svc)

	joined := sink.byName(models.EventUserJoined)
	require.Len(t, joined, 1)
	require.Equal(t, "r", joined[0].room)
	require.Empty(t, joined[0].exclude, "user_joined includes the requester")
	require.Equal(t, models.UserPresencePayload{ID: "s", UserName: "sam"}, joined[0].event.Data)

	lists := sink.byName(models.EventRoomList)
	require.Len(t, lists, 1)
	require.Equal(t, []string{"xena", "yuri", "sam"}, lists[0].event.Data.(models.RoomListPayload).Users)
}

func TestLeaveNotifiesRemainingMembers(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	require.NoError(t, svc.JoinRoom("s2", join("r", "b")))
	sink.reset()

	svc.LeaveRoom("s2")
	checkInvariants(t, svc)

	_, joined := svc.sessions.Get("s2")
	require.False(t, joined)
	require.Equal(t, []string{"s1"}, svc.directory.Members("r"))

	left := sink.byName(models.EventUserLeft)
	require.Len(t, left, 1)
	require.Equal(t, models.UserPresencePayload{ID: "s2", UserName: "b"}, left[0].event.Data)

	lists := sink.byName(models.EventRoomList)
	require.Len(t, lists, 1)
	require.Equal(t, []string{"a"}, lists[0].event.Data.(models.RoomListPayload).Users)
}

func TestLeaveIsIdempotent(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	require.NoError(t, svc.JoinRoom("s2", join("r", "b")))
	svc.LeaveRoom("s2")
	sink.reset()

	svc.LeaveRoom("s2")
	svc.Disconnect("s2")
	require.Empty(t, sink.events)
	checkInvariants(t, svc)
}

func TestDisconnectNeverJoinedIsSilent(t *testing.T) {
	svc, sink := newTestService()

	svc.Disconnect("ghost")
	require.Empty(t, sink.events)
	checkInvariants(t, svc)
}

func TestLastMemberLeavingDeletesRoom(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	sink.reset()

	svc.Disconnect("s1")
	checkInvariants(t, svc)
	require.False(t, svc.directory.Exists("r"))
	// Nobody left to notify.
	require.Empty(t, sink.events)

	// The name is free again for create, but not joinable.
	require.ErrorIs(t, svc.JoinRoom("s2", join("r", "b")), ErrRoomNotFound)
	require.NoError(t, svc.CreateRoom("s2", join("r", "b")))
	checkInvariants(t, svc)
}

func TestSendMessageFansOutToRoom(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r", "a")))
	require.NoError(t, svc.JoinRoom("s2", join("r", "b")))
	sink.reset()

	svc.SendMessage("s1", models.SendMessageRequest{Msg: "hello"})

	msgs := sink.byName(models.EventReceiveMessage)
	require.Len(t, msgs, 1)
	require.Equal(t, "r", msgs[0].room)
	require.Empty(t, msgs[0].exclude, "sender receives its own message")
	require.Equal(t, models.ReceiveMessagePayload{
		SenderID: "s1",
		Sender:   "a",
		Msg:      "hello",
	}, msgs[0].event.Data)
}

func TestSendMessageWithoutRoomIsSilent(t *testing.T) {
	svc, sink := newTestService()

	svc.SendMessage("s1", models.SendMessageRequest{Msg: "into the void"})
	require.Empty(t, sink.events)
	checkInvariants(t, svc)
}

func TestJoinAnotherRoomLeavesCurrentOne(t *testing.T) {
	svc, sink := newTestService()

	require.NoError(t, svc.CreateRoom("s1", join("r1", "a")))
	require.NoError(t, svc.JoinRoom("s2", join("r1", "b")))
	require.NoError(t, svc.CreateRoom("s3", join("r2", "c")))
	sink.reset()

	require.NoError(t, svc.JoinRoom("s2", join("r2", "b")))
	checkInvariants(t, svc)

	require.Equal(t, []string{"s1"}, svc.directory.Members("r1"))
	require.Equal(t, []string{"s3", "s2"}, svc.directory.Members("r2"))

	left := sink.byName(models.EventUserLeft)
	require.Len(t, left, 1)
	require.Equal(t, "r1", left[0].room)
}

func TestEventSequenceKeepsInvariants(t *testing.T) {
	svc, _ := newTestService()

	steps := []func(){
		func() { svc.CreateRoom("s1", join("r1", "a")) },
		func() { svc.JoinRoom("s2", join("r1", "b")) },
		func() { svc.JoinRoom("s3", join("r1", "a")) },      // NameTaken
		func() { svc.JoinRoom("s3", join("r1", "c")) },
		func() { svc.CreateRoom("s4", join("r1", "d")) },    // RoomAlreadyExists
		func() { svc.CreateRoom("s4", join("r2", "a")) },
		func() { svc.LeaveRoom("s2") },
		func() { svc.LeaveRoom("s2") },                      // idempotent
		func() { svc.Disconnect("s1") },
		func() { svc.JoinRoom("s5", join("r1", "b")) },
		func() { svc.Disconnect("s3") },
		func() { svc.Disconnect("s5") },                     // r1 now gone
		func() { svc.JoinRoom("s6", join("r1", "x")) },      // RoomNotFound
		func() { svc.CreateRoom("s6", join("r1", "x")) },
	}

	for _, step := range steps {
		step()
		checkInvariants(t, svc)
	}

	require.True(t, svc.directory.Exists("r1"))
	require.True(t, svc.directory.Exists("r2"))
}
