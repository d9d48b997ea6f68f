package groupbooking

import (
	"errors"
	"fmt"
	"strings"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/stay"
)

// ErrPartialGroupFailure matches any *PartialGroupFailure with errors.Is.
var ErrPartialGroupFailure = errors.New("groupbooking: some room updates failed")

type RoomFailure struct {
	RoomID room.RoomID
	StayID stay.StayID
	Err    error
}

// PartialGroupFailure reports a group edit where some stays were updated and
// others were not. Nothing is rolled back.
type PartialGroupFailure struct {
	GroupCode string
	Succeeded []dto.StayRef
	Failed    []RoomFailure
}

func (e *PartialGroupFailure) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("room %s: %v", f.RoomID, f.Err))
	}
	return fmt.Sprintf("groupbooking: %d of %d room updates failed (%s)",
		len(e.Failed), len(e.Failed)+len(e.Succeeded), strings.Join(parts, "; "))
}

func (e *PartialGroupFailure) Is(target error) bool { return target == ErrPartialGroupFailure }

// FailedRooms lists the rooms whose update did not go through.
func (e *PartialGroupFailure) FailedRooms() []room.RoomID {
	out := make([]room.RoomID, 0, len(e.Failed))
	for _, f := range e.Failed {
		out = append(out, f.RoomID)
	}
	return out
}

// SucceededRooms lists the rooms that now carry the new window.
func (e *PartialGroupFailure) SucceededRooms() []room.RoomID {
	out := make([]room.RoomID, 0, len(e.Succeeded))
	for _, s := range e.Succeeded {
		out = append(out, room.RoomID(s.RoomID))
	}
	return out
}
