package stay

import (
	"time"

	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
)

type StayCreated struct {
	StayID    StayID              `json:"stay_id"`
	RoomID    room.RoomID         `json:"room_id"`
	Range     daterange.DateRange `json:"range"`
	GroupCode string              `json:"group_code,omitempty"`
	Status    Status              `json:"status"`
	At        time.Time           `json:"at"`
}

func (e StayCreated) EventName() string     { return "stay.created" }
func (e StayCreated) AggregateID() string   { return string(e.StayID) }
func (e StayCreated) OccurredAt() time.Time { return e.At }

type StayRescheduled struct {
	StayID   StayID              `json:"stay_id"`
	FromRoom room.RoomID         `json:"from_room"`
	ToRoom   room.RoomID         `json:"to_room"`
	From     daterange.DateRange `json:"from"`
	To       daterange.DateRange `json:"to"`
	At       time.Time           `json:"at"`
}

func (e StayRescheduled) EventName() string     { return "stay.rescheduled" }
func (e StayRescheduled) AggregateID() string   { return string(e.StayID) }
func (e StayRescheduled) OccurredAt() time.Time { return e.At }

type StayStatusChanged struct {
	StayID StayID      `json:"stay_id"`
	RoomID room.RoomID `json:"room_id"`
	From   Status      `json:"from"`
	To     Status      `json:"to"`
	At     time.Time   `json:"at"`
}

func (e StayStatusChanged) EventName() string     { return "stay." + string(e.To) }
func (e StayStatusChanged) AggregateID() string   { return string(e.StayID) }
func (e StayStatusChanged) OccurredAt() time.Time { return e.At }

// AffectedRooms lists the rooms whose availability an event changes.
func AffectedRooms(ev any) []room.RoomID {
	switch e := ev.(type) {
	case StayCreated:
		return []room.RoomID{e.RoomID}
	case StayRescheduled:
		if e.FromRoom == e.ToRoom {
			return []room.RoomID{e.ToRoom}
		}
		return []room.RoomID{e.FromRoom, e.ToRoom}
	case StayStatusChanged:
		return []room.RoomID{e.RoomID}
	}
	return nil
}
