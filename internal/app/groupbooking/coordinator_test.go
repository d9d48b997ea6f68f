package groupbooking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/conflict"
	"frontdesk/internal/domain/group"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

func day(v string) time.Time { return daterange.MustDay(v) }

type source struct {
	mu    sync.Mutex
	rooms map[room.RoomID]availability.RoomSnapshot
	reads int
}

func (s *source) RoomSnapshot(_ context.Context, id room.RoomID, _ time.Time) (availability.RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	snap, ok := s.rooms[id]
	if !ok {
		return availability.RoomSnapshot{}, room.ErrRoomNotFound
	}
	return snap, nil
}

type writer struct {
	mu      sync.Mutex
	groups  []GroupBookingRequest
	updates map[stay.StayID]mutation.UpdateStayRequest
	failFor map[stay.StayID]error
}

func (w *writer) CreateGroup(_ context.Context, req GroupBookingRequest) (dto.Group, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groups = append(w.groups, req)
	out := dto.Group{Code: "GRP-TEST0001"}
	for i, r := range req.Rooms {
		out.Stays = append(out.Stays, dto.StayRef{ID: "s" + string(rune('1'+i)), RoomID: string(r.RoomID), GroupCode: out.Code})
	}
	return out, nil
}

func (w *writer) UpdateStay(_ context.Context, id stay.StayID, req mutation.UpdateStayRequest) (dto.StayRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.updates == nil {
		w.updates = map[stay.StayID]mutation.UpdateStayRequest{}
	}
	w.updates[id] = req
	if err := w.failFor[id]; err != nil {
		return dto.StayRef{}, err
	}
	return dto.StayRef{ID: string(id), RoomID: "room-of-" + string(id), CheckIn: daterange.FormatDay(req.CheckIn), CheckOut: daterange.FormatDay(req.CheckOut)}, nil
}

func (w *writer) CreateStay(context.Context, mutation.CreateStayRequest) (dto.StayRef, error) {
	return dto.StayRef{}, errors.New("not used")
}

func ref(id, in, out string, status stay.Status) availability.StayRef {
	return availability.StayRef{ID: stay.StayID(id), CheckIn: day(in), CheckOut: day(out), Status: status}
}

func newCoordinator(t *testing.T) (*Coordinator, *source, *writer) {
	t.Helper()
	src := &source{rooms: map[room.RoomID]availability.RoomSnapshot{
		"A": {RoomID: "A", Label: "Room A", Future: []availability.StayRef{ref("ga", "2024-06-01", "2024-06-04", stay.StatusConfirmed)}},
		"B": {RoomID: "B", Label: "Room B", Future: []availability.StayRef{
			ref("gb", "2024-06-01", "2024-06-04", stay.StatusConfirmed),
			ref("other", "2024-06-05", "2024-06-07", stay.StatusPending),
		}},
		"C": {RoomID: "C", Label: "Room C", Future: []availability.StayRef{ref("gc", "2024-06-01", "2024-06-04", stay.StatusPending)}},
		"D": {RoomID: "D", Label: "Room D"},
	}}
	w := &writer{}
	c := NewCoordinator(Config{
		Source: src,
		Groups: w,
		Stays:  w,
		Cache:  availability.NewCache(),
		Today:  func() time.Time { return day("2024-05-20") },
	})
	return c, src, w
}

func TestSubmitGroupDuplicateRoomRejectedBeforeAnyCall(t *testing.T) {
	c, src, w := newCoordinator(t)
	_, err := c.SubmitGroup(context.Background(), GroupBookingRequest{
		Rooms: []RoomRequest{{RoomID: "7"}, {RoomID: "8"}, {RoomID: "7"}},
	})
	var dup *group.DuplicateRoomError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, []room.RoomID{"7"}, dup.Rooms)
	assert.Zero(t, src.reads)
	assert.Empty(t, w.groups)
}

func TestSubmitGroupValidation(t *testing.T) {
	c, _, w := newCoordinator(t)

	_, err := c.SubmitGroup(context.Background(), GroupBookingRequest{CheckIn: day("2024-06-10"), CheckOut: day("2024-06-12"), Rooms: []RoomRequest{{}, {}}})
	assert.ErrorIs(t, err, group.ErrNoRooms)

	_, err = c.SubmitGroup(context.Background(), GroupBookingRequest{Rooms: []RoomRequest{{RoomID: "D"}}})
	assert.ErrorIs(t, err, &stay.PreconditionError{Kind: stay.PreconditionInvalidRange})

	_, err = c.SubmitGroup(context.Background(), GroupBookingRequest{CheckIn: day("2024-06-12"), CheckOut: day("2024-06-10"), Rooms: []RoomRequest{{RoomID: "D"}}})
	assert.ErrorIs(t, err, &stay.PreconditionError{Kind: stay.PreconditionInvalidRange})
	assert.Empty(t, w.groups)
}

func TestSubmitGroupReportsEveryConflictingRoom(t *testing.T) {
	c, _, w := newCoordinator(t)
	_, err := c.SubmitGroup(context.Background(), GroupBookingRequest{
		CheckIn:  day("2024-06-03"),
		CheckOut: day("2024-06-06"),
		Rooms:    []RoomRequest{{RoomID: "A"}, {RoomID: "D"}, {RoomID: "B"}},
	})
	var ce *conflict.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Room A", "Room B"}, ce.Labels())
	assert.Empty(t, w.groups)
}

func TestSubmitGroupCreates(t *testing.T) {
	c, _, w := newCoordinator(t)
	res, err := c.SubmitGroup(context.Background(), GroupBookingRequest{
		CheckIn:   day("2024-06-10"),
		CheckOut:  day("2024-06-12"),
		Rooms:     []RoomRequest{{RoomID: "A", GuestName: "Ada"}, {}, {RoomID: "D", GuestName: "Dan", Guests: 2}},
		PromoCode: "SPRING",
	})
	require.NoError(t, err)
	assert.Equal(t, "GRP-TEST0001", res.GroupCode)
	assert.Len(t, res.Stays, 2)
	require.Len(t, w.groups, 1)
	assert.Len(t, w.groups[0].Rooms, 2)
	assert.Equal(t, "SPRING", w.groups[0].PromoCode)
}

func groupStays() []GroupStay {
	return []GroupStay{{StayID: "ga", RoomID: "A"}, {StayID: "gb", RoomID: "B"}, {StayID: "gc", RoomID: "C"}}
}

func TestUpdateGroupAllSucceed(t *testing.T) {
	c, _, w := newCoordinator(t)
	res, err := c.UpdateGroup(context.Background(), GroupUpdateRequest{
		GroupCode: "GRP-1", CheckIn: day("2024-06-02"), CheckOut: day("2024-06-05"), Stays: groupStays(),
	})
	require.NoError(t, err)
	assert.Len(t, res.Stays, 3)
	assert.Len(t, w.updates, 3)
	assert.Equal(t, day("2024-06-05"), w.updates["gb"].CheckOut)
}

func TestUpdateGroupConflictStopsBeforeWrites(t *testing.T) {
	c, _, w := newCoordinator(t)
	_, err := c.UpdateGroup(context.Background(), GroupUpdateRequest{
		GroupCode: "GRP-1", CheckIn: day("2024-06-02"), CheckOut: day("2024-06-06"), Stays: groupStays(),
	})
	var ce *conflict.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Room B"}, ce.Labels())
	assert.Empty(t, w.updates)
}

func TestUpdateGroupPartialFailure(t *testing.T) {
	c, _, w := newCoordinator(t)
	w.failFor = map[stay.StayID]error{"gc": errors.New("upstream: 500")}

	res, err := c.UpdateGroup(context.Background(), GroupUpdateRequest{
		GroupCode: "GRP-1", CheckIn: day("2024-06-02"), CheckOut: day("2024-06-05"), Stays: groupStays(),
	})
	require.ErrorIs(t, err, ErrPartialGroupFailure)
	var partial *PartialGroupFailure
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []room.RoomID{"C"}, partial.FailedRooms())
	assert.ElementsMatch(t, []room.RoomID{"room-of-ga", "room-of-gb"}, partial.SucceededRooms())
	assert.Len(t, res.Stays, 2)
	assert.Len(t, w.updates, 3)
	assert.Contains(t, err.Error(), "1 of 3 room updates failed")
}

func TestUpdateGroupAllFail(t *testing.T) {
	c, _, w := newCoordinator(t)
	boom := errors.New("upstream: unavailable")
	w.failFor = map[stay.StayID]error{"ga": boom, "gb": boom, "gc": boom}

	_, err := c.UpdateGroup(context.Background(), GroupUpdateRequest{
		GroupCode: "GRP-1", CheckIn: day("2024-06-02"), CheckOut: day("2024-06-05"), Stays: groupStays(),
	})
	var perr *mutation.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPartialGroupFailure)
}

func TestUpdateGroupLockedStay(t *testing.T) {
	c, src, w := newCoordinator(t)
	snap := src.rooms["C"]
	snap.Future = []availability.StayRef{ref("gc", "2024-06-01", "2024-06-04", stay.StatusCancelled)}
	src.rooms["C"] = snap

	_, err := c.UpdateGroup(context.Background(), GroupUpdateRequest{
		GroupCode: "GRP-1", CheckIn: day("2024-06-02"), CheckOut: day("2024-06-05"), Stays: groupStays(),
	})
	assert.ErrorIs(t, err, &stay.PreconditionError{Kind: stay.PreconditionLockedStatus})
	assert.Empty(t, w.updates)
}
