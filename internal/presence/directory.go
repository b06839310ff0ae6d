package presence

import (
	"slices"

	"github.com/samber/lo"
)

// NameResolver maps a member id to a display name. Satisfied by SessionTable.
type NameResolver interface {
	DisplayName(id string) (string, bool)
}

// RoomDirectory maps room names to their member ids. A room exists exactly as
// long as it has at least one member; membership keeps join order so rosters
// are stable. Not synchronized; the Service serializes all access.
type RoomDirectory struct {
	rooms map[string][]string
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{rooms: make(map[string][]string)}
}

// CreateRoom inserts an empty room. It returns false for an empty name or a
// name already in the directory, and adds no member either way.
func (d *RoomDirectory) CreateRoom(name string) bool {
	if name == "" {
		return false
	}
	if _, exists := d.rooms[name]; exists {
		return false
	}
	d.rooms[name] = nil
	return true
}

func (d *RoomDirectory) Exists(name string) bool {
	_, ok := d.rooms[name]
	return ok
}

func (d *RoomDirectory) AddMember(room, id string) {
	d.rooms[room] = append(d.rooms[room], id)
}

// RemoveMember drops id from the room and deletes the room when its last
// member leaves. Room existence is derived from membership, never kept empty.
func (d *RoomDirectory) RemoveMember(room, id string) {
	members, ok := d.rooms[room]
	if !ok {
		return
	}
	members = slices.DeleteFunc(members, func(m string) bool { return m == id })
	if len(members) == 0 {
		delete(d.rooms, room)
		return
	}
	d.rooms[room] = members
}

func (d *RoomDirectory) HasMember(room, id string) bool {
	return slices.Contains(d.rooms[room], id)
}

// Members returns the member ids of a room in join order. Nil for an unknown room.
func (d *RoomDirectory) Members(room string) []string {
	return slices.Clone(d.rooms[room])
}

// Roster resolves the room's members to display names, in join order. Members
// missing from the resolver are skipped.
func (d *RoomDirectory) Roster(room string, names NameResolver) []string {
	return lo.FilterMap(d.rooms[room], func(id string, _ int) (string, bool) {
		return names.DisplayName(id)
	})
}
