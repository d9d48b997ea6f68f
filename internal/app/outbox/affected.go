package outbox

import (
	"encoding/json"
	"fmt"

	"frontdesk/internal/domain/group"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/stay"
)

// AffectedRooms decodes a record's payload and lists the rooms whose
// availability it changed. Unknown event names affect no rooms.
func AffectedRooms(rec EventRecord) ([]room.RoomID, error) {
	var target any
	switch rec.Name {
	case "stay.created":
		target = &stay.StayCreated{}
	case "stay.rescheduled":
		target = &stay.StayRescheduled{}
	case "stay.confirmed", "stay.checked_in", "stay.checked_out", "stay.cancelled", "stay.no_show":
		target = &stay.StayStatusChanged{}
	case "group.created":
		var ev group.GroupCreated
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return nil, fmt.Errorf("outbox: decode %s: %w", rec.Name, err)
		}
		return ev.RoomIDs, nil
	default:
		return nil, nil
	}
	if err := json.Unmarshal(rec.Payload, target); err != nil {
		return nil, fmt.Errorf("outbox: decode %s: %w", rec.Name, err)
	}
	switch ev := target.(type) {
	case *stay.StayCreated:
		return stay.AffectedRooms(*ev), nil
	case *stay.StayRescheduled:
		return stay.AffectedRooms(*ev), nil
	case *stay.StayStatusChanged:
		return stay.AffectedRooms(*ev), nil
	}
	return nil, nil
}
