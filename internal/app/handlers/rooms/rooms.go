package rooms

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/app/uow"
	domainroom "frontdesk/internal/domain/room"
)

const (
	listRoomsKey  = "rooms.list"
	createRoomKey = "rooms.create"
)

type ListRoomsQuery struct{}

func (q ListRoomsQuery) Key() string { return listRoomsKey }

type ListRoomsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRoomsHandler) Handle(ctx context.Context, _ ListRoomsQuery) (dto.RoomCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Rooms().List(execCtx)
	if err != nil {
		return dto.RoomCollection{}, err
	}
	sortRooms(list)
	out := dto.RoomCollection{Items: make([]dto.Room, 0, len(list))}
	for _, r := range list {
		out.Items = append(out.Items, dto.MapRoom(r))
	}
	return out, nil
}

type CreateRoomCommand struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number" validate:"required,max=16"`
	Label  string `json:"label,omitempty" validate:"max=64"`
	Floor  int    `json:"floor,omitempty" validate:"gte=0"`
	Type   string `json:"type,omitempty"`
}

func (c CreateRoomCommand) Key() string { return createRoomKey }

type CreateRoomHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *CreateRoomHandler) Handle(ctx context.Context, cmd CreateRoomCommand) (*dto.Room, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	r, err := domainroom.New(domainroom.RoomID(strings.TrimSpace(cmd.ID)), cmd.Number, cmd.Label, cmd.Floor, cmd.Type)
	if err == nil {
		err = unit.Rooms().Save(execCtx, r)
	}
	if finish != nil {
		err = finish(err)
	}
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("room saved", "room_id", r.ID, "label", r.DisplayLabel())
	}
	out := dto.MapRoom(r)
	return &out, nil
}

// sortRooms orders rooms by floor, then number.
func sortRooms(list []*domainroom.Room) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Floor != list[j].Floor {
			return list[i].Floor < list[j].Floor
		}
		if len(list[i].Number) != len(list[j].Number) {
			return len(list[i].Number) < len(list[j].Number)
		}
		return list[i].Number < list[j].Number
	})
}

var _ queries.Handler[ListRoomsQuery, dto.RoomCollection] = (*ListRoomsHandler)(nil)
var _ commands.Handler[CreateRoomCommand, *dto.Room] = (*CreateRoomHandler)(nil)
