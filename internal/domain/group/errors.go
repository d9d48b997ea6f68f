package group

import (
	"errors"
	"strings"

	"frontdesk/internal/domain/room"
)

// ErrDuplicateRoom matches any *DuplicateRoomError with errors.Is.
var ErrDuplicateRoom = errors.New("group: room selected more than once")

// DuplicateRoomError names every room that appears twice in one request.
type DuplicateRoomError struct {
	Rooms []room.RoomID
}

func (e *DuplicateRoomError) Error() string {
	ids := make([]string, 0, len(e.Rooms))
	for _, id := range e.Rooms {
		ids = append(ids, string(id))
	}
	return "group: room selected more than once: " + strings.Join(ids, ", ")
}

func (e *DuplicateRoomError) Is(target error) bool { return target == ErrDuplicateRoom }

// CheckDistinctRooms rejects a room list that selects the same room twice.
// Empty entries are ignored; they are unselected rows.
func CheckDistinctRooms(ids []room.RoomID) error {
	seen := make(map[room.RoomID]int, len(ids))
	var dups []room.RoomID
	for _, id := range ids {
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		return &DuplicateRoomError{Rooms: dups}
	}
	return nil
}
