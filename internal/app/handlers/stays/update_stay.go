package stays

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/middleware"
	"frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/conflict"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	domainstay "frontdesk/internal/domain/stay"
)

const updateStayKey = "stays.update"

// UpdateStayCommand moves or resizes an existing stay. An empty RoomID keeps
// the stay in its current room.
type UpdateStayCommand struct {
	StayID          string `json:"stay_id" validate:"required"`
	CheckIn         string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out" validate:"required,datetime=2006-01-02"`
	RoomID          string `json:"room_id,omitempty"`
	IdempotencyKeyV string `json:"-"`
}

func (c UpdateStayCommand) Key() string { return updateStayKey }

func (c UpdateStayCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpdateStayCommand) ResultPrototype() any { return &dto.StayRef{} }

type UpdateStayHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *UpdateStayHandler) Handle(ctx context.Context, cmd UpdateStayCommand) (*dto.StayRef, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	res, err := h.update(execCtx, unit, cmd)
	if finish != nil {
		err = finish(err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (h *UpdateStayHandler) update(ctx context.Context, unit uow.UnitOfWork, cmd UpdateStayCommand) (*dto.StayRef, error) {
	proposed, err := parseRange(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	s, err := unit.Stays().ByID(ctx, domainstay.StayID(strings.TrimSpace(cmd.StayID)))
	if err != nil {
		return nil, err
	}
	now := nowFunc(h.Now)()
	if err := domainstay.CheckMutation(s.Status, proposed, now); err != nil {
		return nil, err
	}

	target := s.RoomID
	if id := strings.TrimSpace(cmd.RoomID); id != "" {
		target = domainroom.RoomID(id)
	}
	idx, err := handlersupport.IndexFor(ctx, unit, nil, target, s.ID, now)
	if err != nil {
		return nil, err
	}
	if err := conflict.Validate(proposed.CheckIn, proposed.CheckOut, idx).Err(); err != nil {
		return nil, err
	}

	from := s.Range
	if err := s.Reschedule(target, proposed, now); err != nil {
		return nil, err
	}
	if err := unit.Stays().Save(ctx, s); err != nil {
		return nil, err
	}
	if err := recordEvents(ctx, h.Outbox, h.Encoder, s); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("stay rescheduled",
			"stay_id", s.ID,
			"room_id", s.RoomID,
			"from", from.String(),
			"to", s.Range.String(),
		)
	}
	ref := dto.MapStay(s)
	return &ref, nil
}

// parseRange builds a range from wire days; a reversed or empty range is a
// precondition failure rather than a malformed request.
func parseRange(checkIn, checkOut string) (daterange.DateRange, error) {
	in, err := daterange.ParseDay(checkIn)
	if err != nil {
		return daterange.DateRange{}, err
	}
	out, err := daterange.ParseDay(checkOut)
	if err != nil {
		return daterange.DateRange{}, err
	}
	return daterange.DateRange{CheckIn: in, CheckOut: out}, nil
}

func recordEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, s *domainstay.Stay) error {
	return outbox.RecordDomainEvents(ctx, box, encoder, s.Drain())
}

func nowFunc(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return time.Now
}

var _ commands.Handler[UpdateStayCommand, *dto.StayRef] = (*UpdateStayHandler)(nil)
var _ middleware.IdempotentCommand = UpdateStayCommand{}
