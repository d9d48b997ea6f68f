package groups

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
	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/shared/events"
	domainstay "frontdesk/internal/domain/stay"
)

const createGroupKey = "groups.create"

type RoomEntry struct {
	RoomID    string `json:"room_id"`
	GuestName string `json:"guest_name"`
	Guests    int    `json:"guests,omitempty" validate:"gte=0,lte=12"`
	Notes     string `json:"notes,omitempty"`
}

// CreateGroupCommand books several rooms for one shared window. Rows with an
// empty RoomID are unselected and skipped.
type CreateGroupCommand struct {
	GroupCode       string      `json:"group_code,omitempty"`
	CheckIn         string      `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string      `json:"check_out" validate:"required,datetime=2006-01-02"`
	Rooms           []RoomEntry `json:"rooms" validate:"required,min=1,dive"`
	Notes           string      `json:"notes,omitempty" validate:"max=2000"`
	PromoCode       string      `json:"promo_code,omitempty" validate:"max=32"`
	VoucherCode     string      `json:"voucher_code,omitempty" validate:"max=32"`
	IdempotencyKeyV string      `json:"-"`
}

func (c CreateGroupCommand) Key() string { return createGroupKey }

func (c CreateGroupCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateGroupCommand) ResultPrototype() any { return &dto.Group{} }

type CreateGroupHandler struct {
	UoWFactory uow.UoWFactory
	Cache      *availability.Cache
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *CreateGroupHandler) Handle(ctx context.Context, cmd CreateGroupCommand) (*dto.Group, error) {
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

func (h *CreateGroupHandler) create(ctx context.Context, unit uow.UnitOfWork, cmd CreateGroupCommand) (*dto.Group, error) {
	entries := selectedRooms(cmd.Rooms)
	ids := make([]domainroom.RoomID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, domainroom.RoomID(strings.TrimSpace(e.RoomID)))
	}
	if err := domaingroup.CheckDistinctRooms(ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domaingroup.ErrNoRooms
	}

	in, err := daterange.ParseDay(cmd.CheckIn)
	if err != nil {
		return nil, err
	}
	out, err := daterange.ParseDay(cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	window := daterange.DateRange{CheckIn: in, CheckOut: out}
	now := h.now()
	if err := domainstay.CheckRange(window, now); err != nil {
		return nil, err
	}

	indexes := make([]conflict.RoomIndex, 0, len(ids))
	for _, id := range ids {
		r, snap, err := handlersupport.LoadSnapshot(ctx, unit, id, now)
		if err != nil {
			return nil, err
		}
		var idx *availability.Index
		if h.Cache != nil {
			idx = h.Cache.Index(snap)
		} else {
			idx = availability.BuildIndex(snap)
		}
		indexes = append(indexes, conflict.RoomIndex{RoomID: r.ID, Label: r.DisplayLabel(), Index: idx})
	}
	if err := conflict.ValidateGroup(window.CheckIn, window.CheckOut, indexes).Err(); err != nil {
		return nil, err
	}

	g, err := domaingroup.New(domaingroup.CreateParams{
		Code:        strings.TrimSpace(cmd.GroupCode),
		Range:       window,
		RoomIDs:     ids,
		Notes:       cmd.Notes,
		PromoCode:   cmd.PromoCode,
		VoucherCode: cmd.VoucherCode,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Groups().Save(ctx, g); err != nil {
		return nil, err
	}
	pending := g.Drain()

	stays := make([]*domainstay.Stay, 0, len(entries))
	for i, e := range entries {
		s, err := domainstay.New(domainstay.CreateParams{
			ID:        domainstay.StayID(uuid.NewString()),
			RoomID:    ids[i],
			Range:     window,
			GuestName: e.GuestName,
			GroupCode: g.Code,
			Guests:    e.Guests,
			Notes:     e.Notes,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Stays().Save(ctx, s); err != nil {
			return nil, err
		}
		pending = append(pending, s.Drain()...)
		stays = append(stays, s)
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("group booked",
			"group_code", g.Code,
			"rooms", len(stays),
			"range", window.String(),
			"events", events.Names(pending),
		)
	}
	res := dto.MapGroup(g, stays)
	return &res, nil
}

func (h *CreateGroupHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func selectedRooms(rows []RoomEntry) []RoomEntry {
	out := make([]RoomEntry, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.RoomID) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

var (
	_ commands.Handler[CreateGroupCommand, *dto.Group] = (*CreateGroupHandler)(nil)
	_ middleware.IdempotentCommand                     = CreateGroupCommand{}
)
