package stay

import (
	"context"
	"strings"
	"time"

	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/shared/events"
)

type StayID string

type Stay struct {
	ID        StayID
	RoomID    room.RoomID
	Range     daterange.DateRange
	Status    Status
	GuestName string
	GroupCode string
	Guests    int
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id StayID) (*Stay, error)
	Save(ctx context.Context, stay *Stay) error
	ListByRoom(ctx context.Context, roomID room.RoomID) ([]*Stay, error)
	ListByGroup(ctx context.Context, groupCode string) ([]*Stay, error)
}

type CreateParams struct {
	ID        StayID
	RoomID    room.RoomID
	Range     daterange.DateRange
	GuestName string
	GroupCode string
	Guests    int
	Notes     string
	Status    Status
	CreatedAt time.Time
}

func New(params CreateParams) (*Stay, error) {
	if params.RoomID == "" {
		return nil, ErrRoomRequired
	}
	if strings.TrimSpace(params.GuestName) == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests < 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, invalidRangeError(err)
	}
	status := params.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Movable() {
		return nil, ErrInvalidState
	}
	guests := params.Guests
	if guests == 0 {
		guests = 1
	}
	now := params.CreatedAt.UTC()
	s := &Stay{
		ID:        params.ID,
		RoomID:    params.RoomID,
		Range:     params.Range,
		Status:    status,
		GuestName: strings.TrimSpace(params.GuestName),
		GroupCode: params.GroupCode,
		Guests:    guests,
		Notes:     params.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Record(StayCreated{StayID: s.ID, RoomID: s.RoomID, Range: s.Range, GroupCode: s.GroupCode, Status: s.Status, At: now})
	return s, nil
}

// CheckMutation validates a proposed range for a stay in the given status
// against an explicit "today". Status is checked first so locked stays are
// rejected regardless of dates.
func CheckMutation(status Status, proposed daterange.DateRange, today time.Time) error {
	if !status.Movable() {
		return lockedError(status)
	}
	return CheckRange(proposed, today)
}

// CheckRange validates a proposed range for a stay that does not exist yet.
func CheckRange(proposed daterange.DateRange, today time.Time) error {
	if err := proposed.Validate(); err != nil {
		return invalidRangeError(err)
	}
	if proposed.CheckIn.Before(daterange.Day(today)) {
		return pastDateError(proposed.CheckIn, daterange.Day(today))
	}
	return nil
}

// Reschedule moves the stay to new dates and optionally a new room.
func (s *Stay) Reschedule(roomID room.RoomID, proposed daterange.DateRange, now time.Time) error {
	if err := CheckMutation(s.Status, proposed, now); err != nil {
		return err
	}
	if roomID == "" {
		roomID = s.RoomID
	}
	if roomID == s.RoomID && proposed.Equal(s.Range) {
		return nil
	}
	ev := StayRescheduled{
		StayID:   s.ID,
		FromRoom: s.RoomID,
		ToRoom:   roomID,
		From:     s.Range,
		To:       proposed,
		At:       now.UTC(),
	}
	s.RoomID = roomID
	s.Range = proposed
	s.UpdatedAt = now.UTC()
	s.Record(ev)
	return nil
}

func (s *Stay) Confirm(now time.Time) error {
	if s.Status != StatusPending {
		return ErrInvalidState
	}
	return s.transition(StatusConfirmed, now)
}

func (s *Stay) CheckIn(now time.Time) error {
	if s.Status != StatusConfirmed {
		return ErrInvalidState
	}
	return s.transition(StatusCheckedIn, now)
}

func (s *Stay) CheckOut(now time.Time) error {
	if s.Status != StatusCheckedIn {
		return ErrInvalidState
	}
	return s.transition(StatusCheckedOut, now)
}

func (s *Stay) Cancel(now time.Time) error {
	if s.Status != StatusPending && s.Status != StatusConfirmed {
		return ErrInvalidState
	}
	return s.transition(StatusCancelled, now)
}

func (s *Stay) MarkNoShow(now time.Time) error {
	if s.Status != StatusConfirmed {
		return ErrInvalidState
	}
	return s.transition(StatusNoShow, now)
}

func (s *Stay) transition(to Status, now time.Time) error {
	from := s.Status
	s.Status = to
	s.UpdatedAt = now.UTC()
	s.Record(StayStatusChanged{StayID: s.ID, RoomID: s.RoomID, From: from, To: to, At: s.UpdatedAt})
	return nil
}
