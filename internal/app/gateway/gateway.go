package gateway

import (
	"context"
	"time"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/groupbooking"
	groupshandlers "frontdesk/internal/app/handlers/groups"
	roomshandlers "frontdesk/internal/app/handlers/rooms"
	stayshandlers "frontdesk/internal/app/handlers/stays"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// Gateway serves the scheduling ports from the in-process command and query
// buses, so the controller and coordinator can run next to the API.
type Gateway struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func New(cmds commands.Bus, qs queries.Bus) *Gateway {
	return &Gateway{Commands: cmds, Queries: qs}
}

func (g *Gateway) RoomSnapshot(ctx context.Context, roomID room.RoomID, today time.Time) (availability.RoomSnapshot, error) {
	snap, err := queries.Ask[roomshandlers.RoomSnapshotQuery, dto.RoomSnapshot](ctx, g.Queries, roomshandlers.RoomSnapshotQuery{
		RoomID: string(roomID),
		Today:  daterange.FormatDay(today),
	})
	if err != nil {
		return availability.RoomSnapshot{}, err
	}
	return snap.ToDomain()
}

func (g *Gateway) StayByID(ctx context.Context, id stay.StayID) (dto.StayRef, error) {
	return queries.Ask[stayshandlers.GetStayQuery, dto.StayRef](ctx, g.Queries, stayshandlers.GetStayQuery{StayID: string(id)})
}

func (g *Gateway) UpdateStay(ctx context.Context, stayID stay.StayID, req mutation.UpdateStayRequest) (dto.StayRef, error) {
	res, err := commands.Dispatch[stayshandlers.UpdateStayCommand, *dto.StayRef](ctx, g.Commands, stayshandlers.UpdateStayCommand{
		StayID:   string(stayID),
		CheckIn:  daterange.FormatDay(req.CheckIn),
		CheckOut: daterange.FormatDay(req.CheckOut),
		RoomID:   string(req.RoomID),
	})
	return deref(res), err
}

func (g *Gateway) CreateStay(ctx context.Context, req mutation.CreateStayRequest) (dto.StayRef, error) {
	res, err := commands.Dispatch[stayshandlers.CreateStayCommand, *dto.StayRef](ctx, g.Commands, stayshandlers.CreateStayCommand{
		RoomID:    string(req.RoomID),
		CheckIn:   daterange.FormatDay(req.CheckIn),
		CheckOut:  daterange.FormatDay(req.CheckOut),
		GuestName: req.GuestName,
		Guests:    req.Guests,
		Notes:     req.Notes,
	})
	return deref(res), err
}

func (g *Gateway) CreateGroup(ctx context.Context, req groupbooking.GroupBookingRequest) (dto.Group, error) {
	cmd := groupshandlers.CreateGroupCommand{
		CheckIn:         daterange.FormatDay(req.CheckIn),
		CheckOut:        daterange.FormatDay(req.CheckOut),
		Notes:           req.Notes,
		PromoCode:       req.PromoCode,
		VoucherCode:     req.VoucherCode,
		IdempotencyKeyV: req.IdempotencyKey,
		Rooms:           make([]groupshandlers.RoomEntry, 0, len(req.Rooms)),
	}
	for _, r := range req.Rooms {
		cmd.Rooms = append(cmd.Rooms, groupshandlers.RoomEntry{
			RoomID:    string(r.RoomID),
			GuestName: r.GuestName,
			Guests:    r.Guests,
			Notes:     r.Notes,
		})
	}
	res, err := commands.Dispatch[groupshandlers.CreateGroupCommand, *dto.Group](ctx, g.Commands, cmd)
	if err != nil || res == nil {
		return dto.Group{}, err
	}
	return *res, nil
}

var _ mutation.StayReader = (*Gateway)(nil)

func deref(ref *dto.StayRef) dto.StayRef {
	if ref == nil {
		return dto.StayRef{}
	}
	return *ref
}

var (
	_ mutation.SnapshotSource  = (*Gateway)(nil)
	_ mutation.StayWriter      = (*Gateway)(nil)
	_ groupbooking.GroupWriter = (*Gateway)(nil)
)
