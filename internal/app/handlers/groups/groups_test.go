package groups

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/conflict"
	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	domainstay "frontdesk/internal/domain/stay"
	"frontdesk/internal/infra/storage/memory"
)

func clock() time.Time { return daterange.MustDay("2024-06-01") }

func setup(t *testing.T) (*memory.Store, *memory.Outbox, *CreateGroupHandler) {
	t.Helper()
	store := memory.NewStore()
	box := memory.NewOutbox()
	store.SeedRooms(
		&domainroom.Room{ID: "A", Number: "1", Label: "Room A"},
		&domainroom.Room{ID: "B", Number: "2", Label: "Room B"},
		&domainroom.Room{ID: "C", Number: "3", Label: "Room C"},
	)
	h := &CreateGroupHandler{
		UoWFactory: memory.Factory{Store: store, Outbox: box},
		Cache:      availability.NewCache(),
		Outbox:     box,
		Now:        clock,
	}
	return store, box, h
}

func TestCreateGroupBooksEveryRoomAtomically(t *testing.T) {
	store, box, h := setup(t)
	res, err := h.Handle(context.Background(), CreateGroupCommand{
		CheckIn:  "2024-06-10",
		CheckOut: "2024-06-12",
		Rooms: []RoomEntry{
			{RoomID: "A", GuestName: "Ada"},
			{RoomID: ""},
			{RoomID: "B", GuestName: "Bob", Guests: 2},
		},
		PromoCode: "SUMMER",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.RoomIDs)
	require.Len(t, res.Stays, 2)
	for _, s := range res.Stays {
		assert.Equal(t, res.Code, s.GroupCode)
		assert.Equal(t, "2024-06-10", s.CheckIn)
	}
	assert.Equal(t, 3, box.Pending())

	got, err := (&GetGroupHandler{UoWFactory: memory.Factory{Store: store}}).Handle(context.Background(), GetGroupQuery{Code: res.Code})
	require.NoError(t, err)
	assert.Len(t, got.Stays, 2)
	assert.Equal(t, "SUMMER", got.PromoCode)
}

func TestCreateGroupListsEveryConflictingRoom(t *testing.T) {
	store, box, h := setup(t)
	for _, id := range []string{"B", "C"} {
		dr, _ := daterange.Parse("2024-06-11", "2024-06-13")
		store.SeedStays(&domainstay.Stay{ID: domainstay.StayID("busy-" + id), RoomID: domainroom.RoomID(id), Range: dr, Status: domainstay.StatusConfirmed, GuestName: "x"})
	}

	_, err := h.Handle(context.Background(), CreateGroupCommand{
		CheckIn:  "2024-06-10",
		CheckOut: "2024-06-12",
		Rooms:    []RoomEntry{{RoomID: "A", GuestName: "a"}, {RoomID: "B", GuestName: "b"}, {RoomID: "C", GuestName: "c"}},
	})
	var ce *conflict.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Room B", "Room C"}, ce.Labels())
	assert.Zero(t, box.Pending())

	unit, err := memory.Factory{Store: store}.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	stays, err := unit.Stays().ListByRoom(context.Background(), "A")
	require.NoError(t, err)
	assert.Empty(t, stays)
}

func TestCreateGroupRejectsDuplicateRoomBeforeAnythingElse(t *testing.T) {
	_, _, h := setup(t)
	_, err := h.Handle(context.Background(), CreateGroupCommand{
		CheckIn:  "2024-01-01",
		CheckOut: "2023-12-01",
		Rooms:    []RoomEntry{{RoomID: "7"}, {RoomID: "7"}},
	})
	assert.ErrorIs(t, err, domaingroup.ErrDuplicateRoom)
}

func TestCreateGroupRequiresSelectedRoomAndValidWindow(t *testing.T) {
	_, _, h := setup(t)
	_, err := h.Handle(context.Background(), CreateGroupCommand{CheckIn: "2024-06-10", CheckOut: "2024-06-12", Rooms: []RoomEntry{{}}})
	assert.ErrorIs(t, err, domaingroup.ErrNoRooms)

	_, err = h.Handle(context.Background(), CreateGroupCommand{CheckIn: "2024-06-12", CheckOut: "2024-06-12", Rooms: []RoomEntry{{RoomID: "A", GuestName: "a"}}})
	assert.ErrorIs(t, err, &domainstay.PreconditionError{Kind: domainstay.PreconditionInvalidRange})

	_, err = h.Handle(context.Background(), CreateGroupCommand{CheckIn: "2024-05-30", CheckOut: "2024-06-02", Rooms: []RoomEntry{{RoomID: "A", GuestName: "a"}}})
	assert.ErrorIs(t, err, &domainstay.PreconditionError{Kind: domainstay.PreconditionPastDate})
}

func TestGetGroupNotFound(t *testing.T) {
	store, _, _ := setup(t)
	_, err := (&GetGroupHandler{UoWFactory: memory.Factory{Store: store}}).Handle(context.Background(), GetGroupQuery{Code: "grp-missing"})
	assert.ErrorIs(t, err, domaingroup.ErrGroupNotFound)
}
