package group

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
)

func TestNewGroupGeneratesCodeAndEvent(t *testing.T) {
	dr, err := daterange.Parse("2024-06-01", "2024-06-04")
	require.NoError(t, err)

	g, err := New(CreateParams{Range: dr, RoomIDs: []room.RoomID{"101", "102"}, PromoCode: " SPRING "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(g.Code, "GRP-"))
	assert.Len(t, g.Code, len("GRP-")+8)
	assert.Equal(t, "SPRING", g.PromoCode)
	require.Len(t, g.PendingEvents(), 1)
	assert.Equal(t, "group.created", g.PendingEvents()[0].EventName())
}

func TestNewGroupRequiresRooms(t *testing.T) {
	dr, _ := daterange.Parse("2024-06-01", "2024-06-04")
	_, err := New(CreateParams{Range: dr})
	assert.ErrorIs(t, err, ErrNoRooms)
}

func TestCheckDistinctRooms(t *testing.T) {
	assert.NoError(t, CheckDistinctRooms([]room.RoomID{"7", "8", ""}))
	assert.NoError(t, CheckDistinctRooms([]room.RoomID{"", ""}))

	err := CheckDistinctRooms([]room.RoomID{"7", "8", "7", "7"})
	require.ErrorIs(t, err, ErrDuplicateRoom)
	var dup *DuplicateRoomError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, []room.RoomID{"7"}, dup.Rooms)
}
