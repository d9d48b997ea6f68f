package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	domainstay "frontdesk/internal/domain/stay"
)

func TestStayDocumentRoundTrip(t *testing.T) {
	dr, err := daterange.Parse("2024-05-10", "2024-05-13")
	require.NoError(t, err)
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	in := &domainstay.Stay{
		ID:        "s-1",
		RoomID:    "101",
		Range:     dr,
		Status:    domainstay.StatusConfirmed,
		GuestName: "Ada",
		GroupCode: "G-1",
		Guests:    2,
		CreatedAt: created,
		UpdatedAt: created,
		Version:   3,
	}

	doc := newStayDocument(in)
	assert.Equal(t, dr.CheckIn.UnixMilli(), doc.Range.CheckIn)
	assert.Equal(t, "confirmed", doc.Status)

	out := doc.toDomain()
	assert.True(t, out.Range.Equal(dr))
	assert.Equal(t, in.RoomID, out.RoomID)
	assert.Equal(t, in.GroupCode, out.GroupCode)
	assert.Equal(t, created, out.CreatedAt)
	assert.EqualValues(t, 3, out.Version)
}

func TestGroupDocumentKeepsRoomOrder(t *testing.T) {
	dr, err := daterange.Parse("2024-06-01", "2024-06-03")
	require.NoError(t, err)
	g := &domaingroup.Group{Code: "G-7", Range: dr, RoomIDs: []domainroom.RoomID{"203", "101", "102"}}

	out := newGroupDocument(g).toDomain()
	assert.Equal(t, g.RoomIDs, out.RoomIDs)
	assert.Equal(t, "2024-06-01/2024-06-03", out.Range.String())
}
