package availability

import (
	"hash/fnv"
	"io"
	"strconv"

	"frontdesk/internal/domain/shared/daterange"
)

// Version fingerprints the snapshot contents. Two snapshots with the same
// stays, dates and statuses share a version.
func (s RoomSnapshot) Version() uint64 {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = io.WriteString(h, p)
			_, _ = h.Write([]byte{0})
		}
	}
	write(string(s.RoomID), s.Label)
	if s.Current != nil {
		write("current")
	}
	for _, ref := range s.Stays() {
		write(string(ref.ID), daterange.FormatDay(ref.CheckIn), daterange.FormatDay(ref.CheckOut), string(ref.Status), ref.GuestName)
	}
	write(strconv.Itoa(len(s.Future)))
	return h.Sum64()
}
