package mutation

import (
	"context"
	"time"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/stay"
)

// SnapshotSource reads a room's current and upcoming stays as of today.
type SnapshotSource interface {
	RoomSnapshot(ctx context.Context, roomID room.RoomID, today time.Time) (availability.RoomSnapshot, error)
}

// StayReader looks up one stay by id. A source implementing it lets the
// controller name the reason a gesture on a departed stay is refused.
type StayReader interface {
	StayByID(ctx context.Context, id stay.StayID) (dto.StayRef, error)
}

type UpdateStayRequest struct {
	CheckIn  time.Time
	CheckOut time.Time
	RoomID   room.RoomID
}

type CreateStayRequest struct {
	RoomID    room.RoomID
	CheckIn   time.Time
	CheckOut  time.Time
	GuestName string
	Guests    int
	Notes     string
	GroupCode string
}

// StayWriter is the persistence boundary.
type StayWriter interface {
	UpdateStay(ctx context.Context, stayID stay.StayID, req UpdateStayRequest) (dto.StayRef, error)
	CreateStay(ctx context.Context, req CreateStayRequest) (dto.StayRef, error)
}

// Prompt is the before/after summary shown when asking the user to confirm.
type Prompt struct {
	GuestName         string `json:"guest_name"`
	OldDateRangeLabel string `json:"old_date_range_label,omitempty"`
	NewDateRangeLabel string `json:"new_date_range_label"`
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt Prompt) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// Board is the visual model of the reservation calendar.
type Board interface {
	Place(ctx context.Context, p Placement)
	Remove(ctx context.Context, stayID stay.StayID)
	Rerender(ctx context.Context) error
}

// Invalidator refreshes views derived from availability.
type Invalidator interface {
	Invalidate(ctx context.Context, rooms ...room.RoomID)
}

// Recorder counts finished gestures by kind and outcome.
type Recorder interface {
	ObserveMutation(kind, outcome string)
}

type decisionKey struct{}

// WithDecision records an answer given before the gesture is submitted, for
// callers that cannot be prompted interactively.
func WithDecision(ctx context.Context, accept bool) context.Context {
	return context.WithValue(ctx, decisionKey{}, accept)
}

// DecisionConfirmer answers with the decision stored by WithDecision and
// declines when none was given.
type DecisionConfirmer struct{}

func (DecisionConfirmer) Confirm(ctx context.Context, _ Prompt) (bool, error) {
	accept, _ := ctx.Value(decisionKey{}).(bool)
	return accept, nil
}
