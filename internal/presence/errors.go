package presence

import "errors"

var (
	// ErrInvalidRequest is returned when a required field is missing or empty.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRoomAlreadyExists is returned by create_room for an existing room name.
	ErrRoomAlreadyExists = errors.New("room already exists")
	// ErrRoomNotFound covers both a missing room and a duplicate join by the
	// same session. Collapsing the two is intentional; clients observe a single
	// room_join_failed either way.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNameTaken is returned when the display name is in use in the target
	// room, or is the reserved server name.
	ErrNameTaken = errors.New("name taken")
)
