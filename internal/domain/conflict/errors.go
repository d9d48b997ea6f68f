package conflict

import (
	"errors"
	"strings"
	"time"

	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// ErrConflict matches any *ConflictError with errors.Is.
var ErrConflict = errors.New("conflict: room nights already occupied")

type RoomConflict struct {
	RoomID room.RoomID
	Label  string
	Nights []time.Time
	Stays  []stay.StayID
}

// ConflictError lists every room and night that blocked a proposed stay.
type ConflictError struct {
	Rooms []RoomConflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Rooms))
	for _, r := range e.Rooms {
		nights := make([]string, 0, len(r.Nights))
		for _, n := range r.Nights {
			nights = append(nights, daterange.FormatDay(n))
		}
		parts = append(parts, r.Label+" is occupied on "+strings.Join(nights, ", "))
	}
	return "conflict: " + strings.Join(parts, "; ")
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Labels returns the offending room labels in order.
func (e *ConflictError) Labels() []string {
	out := make([]string, 0, len(e.Rooms))
	for _, r := range e.Rooms {
		out = append(out, r.Label)
	}
	return out
}
