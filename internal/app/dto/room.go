package dto

import (
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
)

type Room struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Label  string `json:"label"`
	Floor  int    `json:"floor,omitempty"`
	Type   string `json:"type,omitempty"`
}

func MapRoom(r *room.Room) Room {
	return Room{ID: string(r.ID), Number: r.Number, Label: r.DisplayLabel(), Floor: r.Floor, Type: r.Type}
}

type RoomCollection struct {
	Items []Room `json:"items"`
}

// RoomSnapshot is the wire form of availability.RoomSnapshot.
type RoomSnapshot struct {
	RoomID      string    `json:"room_id"`
	Label       string    `json:"label"`
	CurrentStay *StayRef  `json:"current_stay,omitempty"`
	FutureStays []StayRef `json:"future_stays"`
}

func MapSnapshot(s availability.RoomSnapshot) RoomSnapshot {
	out := RoomSnapshot{RoomID: string(s.RoomID), Label: s.Label, FutureStays: make([]StayRef, 0, len(s.Future))}
	if s.Current != nil {
		cur := mapAvailabilityRef(s.RoomID, *s.Current)
		out.CurrentStay = &cur
	}
	for _, ref := range s.Future {
		out.FutureStays = append(out.FutureStays, mapAvailabilityRef(s.RoomID, ref))
	}
	return out
}

// ToDomain converts the wire snapshot back into the availability model.
func (s RoomSnapshot) ToDomain() (availability.RoomSnapshot, error) {
	out := availability.RoomSnapshot{RoomID: room.RoomID(s.RoomID), Label: s.Label}
	if s.CurrentStay != nil {
		ref, err := s.CurrentStay.ToAvailability()
		if err != nil {
			return availability.RoomSnapshot{}, err
		}
		out.Current = &ref
	}
	for _, raw := range s.FutureStays {
		ref, err := raw.ToAvailability()
		if err != nil {
			return availability.RoomSnapshot{}, err
		}
		out.Future = append(out.Future, ref)
	}
	return out, nil
}
