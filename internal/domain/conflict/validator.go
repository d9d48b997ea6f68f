package conflict

import (
	"time"

	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// Verdict is the outcome of checking one proposed stay against one room.
type Verdict struct {
	RoomID            room.RoomID
	RoomLabel         string
	HasConflict       bool
	ConflictingNights []time.Time
	ConflictingStays  []stay.StayID
}

// Validate walks the proposed nights [checkIn, checkOut) and collects the
// ones already occupied in the index. A stay arriving on another stay's
// departure day does not conflict because the departure day is not occupied.
func Validate(checkIn, checkOut time.Time, idx *availability.Index) Verdict {
	v := Verdict{}
	if idx == nil {
		return v
	}
	v.RoomID = idx.RoomID
	v.RoomLabel = idx.DisplayLabel()
	proposed := daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}
	seen := map[stay.StayID]struct{}{}
	for _, night := range proposed.Nights() {
		occupant, taken := idx.OccupiedNights.Occupant(night)
		if !taken {
			continue
		}
		v.ConflictingNights = append(v.ConflictingNights, night)
		if _, dup := seen[occupant]; !dup && occupant != "" {
			seen[occupant] = struct{}{}
			v.ConflictingStays = append(v.ConflictingStays, occupant)
		}
	}
	v.HasConflict = len(v.ConflictingNights) > 0
	return v
}

// Err converts a conflicting verdict into a *ConflictError.
func (v Verdict) Err() error {
	if !v.HasConflict {
		return nil
	}
	return &ConflictError{Rooms: []RoomConflict{v.roomConflict()}}
}

func (v Verdict) roomConflict() RoomConflict {
	return RoomConflict{RoomID: v.RoomID, Label: v.RoomLabel, Nights: v.ConflictingNights, Stays: v.ConflictingStays}
}

// RoomIndex pairs a room with its availability for group validation.
type RoomIndex struct {
	RoomID room.RoomID
	Label  string
	Index  *availability.Index
}

// GroupVerdict aggregates per-room verdicts of a multi-room booking.
type GroupVerdict struct {
	Verdicts              []Verdict
	AnyConflict           bool
	ConflictingRoomLabels []string
}

// ValidateGroup checks every room independently against the shared window.
// The group conflicts if any room does; all offending rooms are reported.
func ValidateGroup(checkIn, checkOut time.Time, rooms []RoomIndex) GroupVerdict {
	out := GroupVerdict{Verdicts: make([]Verdict, 0, len(rooms))}
	for _, r := range rooms {
		v := Validate(checkIn, checkOut, r.Index)
		v.RoomID = r.RoomID
		if r.Label != "" {
			v.RoomLabel = r.Label
		} else if v.RoomLabel == "" {
			v.RoomLabel = string(r.RoomID)
		}
		out.Verdicts = append(out.Verdicts, v)
		if v.HasConflict {
			out.AnyConflict = true
			out.ConflictingRoomLabels = append(out.ConflictingRoomLabels, v.RoomLabel)
		}
	}
	return out
}

// Err converts a conflicting group verdict into a *ConflictError listing every room.
func (g GroupVerdict) Err() error {
	if !g.AnyConflict {
		return nil
	}
	e := &ConflictError{}
	for _, v := range g.Verdicts {
		if v.HasConflict {
			e.Rooms = append(e.Rooms, v.roomConflict())
		}
	}
	return e
}
