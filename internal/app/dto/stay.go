package dto

import (
	"fmt"
	"time"

	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// StayRef is the wire form of a stay. Dates are ISO calendar days.
type StayRef struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id,omitempty"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Status    string    `json:"status"`
	GuestName string    `json:"guest_name,omitempty"`
	GroupCode string    `json:"group_code,omitempty"`
	Guests    int       `json:"guests,omitempty"`
	Version   int64     `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func MapStay(s *stay.Stay) StayRef {
	return StayRef{
		ID:        string(s.ID),
		RoomID:    string(s.RoomID),
		CheckIn:   daterange.FormatDay(s.Range.CheckIn),
		CheckOut:  daterange.FormatDay(s.Range.CheckOut),
		Status:    string(s.Status),
		GuestName: s.GuestName,
		GroupCode: s.GroupCode,
		Guests:    s.Guests,
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	}
}

// Range parses the ISO dates of the reference.
func (r StayRef) Range() (daterange.DateRange, error) {
	in, err := daterange.ParseDay(r.CheckIn)
	if err != nil {
		return daterange.DateRange{}, err
	}
	out, err := daterange.ParseDay(r.CheckOut)
	if err != nil {
		return daterange.DateRange{}, err
	}
	return daterange.DateRange{CheckIn: in, CheckOut: out}, nil
}

// ToAvailability converts a wire reference into the availability model.
func (r StayRef) ToAvailability() (availability.StayRef, error) {
	dr, err := r.Range()
	if err != nil {
		return availability.StayRef{}, fmt.Errorf("stay %s: %w", r.ID, err)
	}
	status, err := stay.ParseStatus(r.Status)
	if err != nil {
		return availability.StayRef{}, fmt.Errorf("stay %s: %w", r.ID, err)
	}
	return availability.StayRef{
		ID:        stay.StayID(r.ID),
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Status:    status,
		GuestName: r.GuestName,
	}, nil
}

func mapAvailabilityRef(roomID room.RoomID, ref availability.StayRef) StayRef {
	return StayRef{
		ID:        string(ref.ID),
		RoomID:    string(roomID),
		CheckIn:   daterange.FormatDay(ref.CheckIn),
		CheckOut:  daterange.FormatDay(ref.CheckOut),
		Status:    string(ref.Status),
		GuestName: ref.GuestName,
	}
}

type StayCollection struct {
	Items []StayRef `json:"items"`
}
