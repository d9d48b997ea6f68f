package conflict

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

func day(v string) time.Time { return daterange.MustDay(v) }

func index(roomID, label string, stays ...availability.StayRef) *availability.Index {
	return availability.BuildIndex(availability.RoomSnapshot{RoomID: room.RoomID(roomID), Label: label, Future: stays})
}

func ref(id, in, out string, status stay.Status) availability.StayRef {
	return availability.StayRef{ID: stay.StayID(id), CheckIn: day(in), CheckOut: day(out), Status: status}
}

func TestValidateBackToBack(t *testing.T) {
	idx := index("7", "Room 7", ref("a", "2024-02-10", "2024-02-13", stay.StatusConfirmed))

	v := Validate(day("2024-02-13"), day("2024-02-15"), idx)
	assert.False(t, v.HasConflict)
	assert.Empty(t, v.ConflictingNights)
	assert.NoError(t, v.Err())

	v = Validate(day("2024-02-12"), day("2024-02-14"), idx)
	assert.True(t, v.HasConflict)
	assert.Equal(t, []time.Time{day("2024-02-12")}, v.ConflictingNights)
	assert.Equal(t, []stay.StayID{"a"}, v.ConflictingStays)
	assert.Equal(t, "Room 7", v.RoomLabel)
}

func TestValidateDepartureBeforeExistingArrival(t *testing.T) {
	idx := index("7", "", ref("a", "2024-02-10", "2024-02-13", stay.StatusConfirmed))
	v := Validate(day("2024-02-07"), day("2024-02-10"), idx)
	assert.False(t, v.HasConflict)
	assert.Equal(t, "7", v.RoomLabel)
}

func TestValidateCancelledStayNeverConflicts(t *testing.T) {
	idx := index("7", "Room 7", ref("c", "2024-03-01", "2024-03-05", stay.StatusCancelled))
	v := Validate(day("2024-03-01"), day("2024-03-05"), idx)
	assert.False(t, v.HasConflict)
}

func TestScenarioExactGapAndDoubleOverlap(t *testing.T) {
	idx := index("101", "Room 101",
		ref("s1", "2024-05-01", "2024-05-03", stay.StatusConfirmed),
		ref("s2", "2024-05-06", "2024-05-08", stay.StatusPending),
	)

	gap := Validate(day("2024-05-03"), day("2024-05-06"), idx)
	assert.False(t, gap.HasConflict)

	wide := Validate(day("2024-05-02"), day("2024-05-07"), idx)
	require.True(t, wide.HasConflict)
	assert.Equal(t, []time.Time{day("2024-05-02"), day("2024-05-06")}, wide.ConflictingNights)
	assert.Equal(t, []stay.StayID{"s1", "s2"}, wide.ConflictingStays)

	err := wide.Err()
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "conflict: Room 101 is occupied on 2024-05-02, 2024-05-06", err.Error())
}

func TestValidateSelfExclusion(t *testing.T) {
	snap := availability.RoomSnapshot{RoomID: "101", Future: []availability.StayRef{
		ref("x", "2024-05-10", "2024-05-13", stay.StatusConfirmed),
	}}
	moved := Validate(day("2024-05-11"), day("2024-05-14"), availability.BuildIndex(snap))
	assert.True(t, moved.HasConflict)

	moved = Validate(day("2024-05-11"), day("2024-05-14"), availability.BuildIndex(snap.Without("x")))
	assert.False(t, moved.HasConflict)
}

func TestValidateGroupReportsOnlyConflictingRooms(t *testing.T) {
	in, out := day("2024-06-01"), day("2024-06-04")
	rooms := []RoomIndex{
		{RoomID: "A", Label: "Room A", Index: index("A", "")},
		{RoomID: "B", Label: "Room B", Index: index("B", "", ref("b1", "2024-06-03", "2024-06-05", stay.StatusConfirmed))},
		{RoomID: "C", Label: "Room C", Index: index("C", "", ref("c1", "2024-06-04", "2024-06-06", stay.StatusConfirmed))},
	}

	g := ValidateGroup(in, out, rooms)
	assert.True(t, g.AnyConflict)
	assert.Equal(t, []string{"Room B"}, g.ConflictingRoomLabels)
	require.Len(t, g.Verdicts, 3)
	assert.False(t, g.Verdicts[0].HasConflict)
	assert.True(t, g.Verdicts[1].HasConflict)
	assert.False(t, g.Verdicts[2].HasConflict)

	var ce *ConflictError
	require.True(t, errors.As(g.Err(), &ce))
	require.Len(t, ce.Rooms, 1)
	assert.Equal(t, []time.Time{day("2024-06-03")}, ce.Rooms[0].Nights)
}

func TestValidateGroupNoConflict(t *testing.T) {
	g := ValidateGroup(day("2024-06-01"), day("2024-06-02"), []RoomIndex{
		{RoomID: "A", Index: index("A", "")},
	})
	assert.False(t, g.AnyConflict)
	assert.Empty(t, g.ConflictingRoomLabels)
	assert.NoError(t, g.Err())
	assert.Equal(t, "A", g.Verdicts[0].RoomLabel)
}

func TestValidateGroupListsEveryConflictingRoom(t *testing.T) {
	busy := ref("x", "2024-06-01", "2024-06-10", stay.StatusCheckedIn)
	g := ValidateGroup(day("2024-06-02"), day("2024-06-03"), []RoomIndex{
		{RoomID: "A", Label: "Room A", Index: index("A", "", busy)},
		{RoomID: "B", Label: "Room B", Index: index("B", "", busy)},
	})
	assert.Equal(t, []string{"Room A", "Room B"}, g.ConflictingRoomLabels)
	var ce *ConflictError
	require.True(t, errors.As(g.Err(), &ce))
	assert.Equal(t, []string{"Room A", "Room B"}, ce.Labels())
}
