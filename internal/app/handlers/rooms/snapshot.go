package rooms

import (
	"context"
	"strings"
	"time"

	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/availability"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
)

const (
	roomSnapshotKey  = "rooms.snapshot"
	boardKey         = "rooms.board"
	defaultBoardDays = 14
)

// RoomSnapshotQuery returns a room's current and upcoming stays as of Today.
// An empty Today means the server's current day.
type RoomSnapshotQuery struct {
	RoomID string `json:"room_id" validate:"required"`
	Today  string `json:"today,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (q RoomSnapshotQuery) Key() string { return roomSnapshotKey }

type RoomSnapshotHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *RoomSnapshotHandler) Handle(ctx context.Context, q RoomSnapshotQuery) (dto.RoomSnapshot, error) {
	today, err := dayOr(q.Today, h.Now)
	if err != nil {
		return dto.RoomSnapshot{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RoomSnapshot{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	_, snap, err := handlersupport.LoadSnapshot(execCtx, unit, domainroom.RoomID(strings.TrimSpace(q.RoomID)), today)
	if err != nil {
		return dto.RoomSnapshot{}, err
	}
	return dto.MapSnapshot(snap), nil
}

// BoardQuery projects every room's blocking stays onto [From, To).
type BoardQuery struct {
	From string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (q BoardQuery) Key() string { return boardKey }

type BoardHandler struct {
	UoWFactory uow.UoWFactory
	Cache      *availability.Cache
	Now        func() time.Time
}

func (h *BoardHandler) Handle(ctx context.Context, q BoardQuery) (dto.Board, error) {
	from, err := dayOr(q.From, h.Now)
	if err != nil {
		return dto.Board{}, err
	}
	to := from.AddDate(0, 0, defaultBoardDays)
	if q.To != "" {
		if to, err = daterange.ParseDay(q.To); err != nil {
			return dto.Board{}, err
		}
	}
	window, err := daterange.New(from, to)
	if err != nil {
		return dto.Board{}, err
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Board{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Rooms().List(execCtx)
	if err != nil {
		return dto.Board{}, err
	}
	sortRooms(list)

	board := dto.Board{From: daterange.FormatDay(window.CheckIn), To: daterange.FormatDay(window.CheckOut), Rows: make([]dto.BoardRow, 0, len(list))}
	for _, r := range list {
		stays, err := unit.Stays().ListByRoom(execCtx, r.ID)
		if err != nil {
			return dto.Board{}, err
		}
		snap := handlersupport.SnapshotFromStays(r, stays, window.CheckIn)
		var idx *availability.Index
		if h.Cache != nil {
			idx = h.Cache.Index(snap)
		} else {
			idx = availability.BuildIndex(snap)
		}
		board.Rows = append(board.Rows, dto.MapBoardRow(idx, window))
	}
	return board, nil
}

func dayOr(value string, now func() time.Time) (time.Time, error) {
	if strings.TrimSpace(value) != "" {
		return daterange.ParseDay(value)
	}
	if now == nil {
		now = time.Now
	}
	return daterange.Day(now()), nil
}

var _ queries.Handler[RoomSnapshotQuery, dto.RoomSnapshot] = (*RoomSnapshotHandler)(nil)
var _ queries.Handler[BoardQuery, dto.Board] = (*BoardHandler)(nil)
