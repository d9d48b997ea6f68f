package stays

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/middleware"
	"frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/conflict"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

const createStayKey = "stays.create"

type CreateStayCommand struct {
	StayID          string `json:"stay_id,omitempty"`
	RoomID          string `json:"room_id" validate:"required"`
	CheckIn         string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out" validate:"required,datetime=2006-01-02"`
	GuestName       string `json:"guest_name" validate:"required"`
	Guests          int    `json:"guests,omitempty" validate:"gte=0,lte=12"`
	Status          string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
	Notes           string `json:"notes,omitempty" validate:"max=1000"`
	IdempotencyKeyV string `json:"-"`
}

func (c CreateStayCommand) Key() string { return createStayKey }

func (c CreateStayCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateStayCommand) ResultPrototype() any { return &dto.StayRef{} }

type CreateStayHandler struct {
	UoWFactory uow.UoWFactory
	Cache      *availability.Cache
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *CreateStayHandler) Handle(ctx context.Context, cmd CreateStayCommand) (*dto.StayRef, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	res, err := h.create(execCtx, unit, cmd)
	if finish != nil {
		err = finish(err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (h *CreateStayHandler) create(ctx context.Context, unit uow.UnitOfWork, cmd CreateStayCommand) (*dto.StayRef, error) {
	proposed, err := parseRange(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := nowFunc(h.Now)()
	if err := domainstay.CheckRange(proposed, now); err != nil {
		return nil, err
	}
	status := domainstay.StatusPending
	if cmd.Status != "" {
		if status, err = domainstay.ParseStatus(cmd.Status); err != nil {
			return nil, err
		}
	}

	roomID := domainroom.RoomID(strings.TrimSpace(cmd.RoomID))
	idx, err := handlersupport.IndexFor(ctx, unit, h.Cache, roomID, "", now)
	if err != nil {
		return nil, err
	}
	if err := conflict.Validate(proposed.CheckIn, proposed.CheckOut, idx).Err(); err != nil {
		return nil, err
	}

	id := domainstay.StayID(strings.TrimSpace(cmd.StayID))
	if id == "" {
		id = domainstay.StayID(uuid.NewString())
	}
	s, err := domainstay.New(domainstay.CreateParams{
		ID:        id,
		RoomID:    roomID,
		Range:     proposed,
		GuestName: cmd.GuestName,
		Guests:    cmd.Guests,
		Notes:     cmd.Notes,
		Status:    status,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Stays().Save(ctx, s); err != nil {
		return nil, err
	}
	if err := recordEvents(ctx, h.Outbox, h.Encoder, s); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("stay created", "stay_id", s.ID, "room_id", s.RoomID, "range", s.Range.String())
	}
	ref := dto.MapStay(s)
	return &ref, nil
}

var _ commands.Handler[CreateStayCommand, *dto.StayRef] = (*CreateStayHandler)(nil)
var _ middleware.IdempotentCommand = CreateStayCommand{}
