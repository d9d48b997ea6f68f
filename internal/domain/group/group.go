package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/shared/events"
)

var (
	ErrGroupNotFound = errors.New("group: not found")
	ErrNoRooms       = errors.New("group: at least one room required")
)

const codePrefix = "GRP-"

// Group links sibling stays booked together under one code and window.
type Group struct {
	Code        string
	Range       daterange.DateRange
	RoomIDs     []room.RoomID
	Notes       string
	PromoCode   string
	VoucherCode string
	CreatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByCode(ctx context.Context, code string) (*Group, error)
	Save(ctx context.Context, g *Group) error
}

type CreateParams struct {
	Code        string
	Range       daterange.DateRange
	RoomIDs     []room.RoomID
	Notes       string
	PromoCode   string
	VoucherCode string
	CreatedAt   time.Time
}

func New(params CreateParams) (*Group, error) {
	if len(params.RoomIDs) == 0 {
		return nil, ErrNoRooms
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	code := params.Code
	if code == "" {
		code = NewCode()
	}
	g := &Group{
		Code:        code,
		Range:       params.Range,
		RoomIDs:     append([]room.RoomID(nil), params.RoomIDs...),
		Notes:       params.Notes,
		PromoCode:   strings.TrimSpace(params.PromoCode),
		VoucherCode: strings.TrimSpace(params.VoucherCode),
		CreatedAt:   params.CreatedAt.UTC(),
	}
	g.Record(GroupCreated{Code: g.Code, Range: g.Range, RoomIDs: g.RoomIDs, At: g.CreatedAt})
	return g, nil
}

// NewCode returns a short human-typeable group code.
func NewCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return codePrefix + strings.ToUpper(raw[:8])
}

type GroupCreated struct {
	Code    string              `json:"group_code"`
	Range   daterange.DateRange `json:"range"`
	RoomIDs []room.RoomID       `json:"room_ids"`
	At      time.Time           `json:"at"`
}

func (e GroupCreated) EventName() string     { return "group.created" }
func (e GroupCreated) AggregateID() string   { return e.Code }
func (e GroupCreated) OccurredAt() time.Time { return e.At }
