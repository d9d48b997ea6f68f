package availability

import (
	"sort"
	"time"

	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// StayRef is the minimal view of a stay that availability needs.
type StayRef struct {
	ID        stay.StayID
	CheckIn   time.Time
	CheckOut  time.Time
	Status    stay.Status
	GuestName string
}

func (r StayRef) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: daterange.Day(r.CheckIn), CheckOut: daterange.Day(r.CheckOut)}
}

// RoomSnapshot is a room's bookings as read from the reservation source.
type RoomSnapshot struct {
	RoomID  room.RoomID
	Label   string
	Current *StayRef
	Future  []StayRef
}

// Stays returns the current stay (if any) followed by the future stays.
func (s RoomSnapshot) Stays() []StayRef {
	out := make([]StayRef, 0, len(s.Future)+1)
	if s.Current != nil {
		out = append(out, *s.Current)
	}
	return append(out, s.Future...)
}

// Without returns a copy of the snapshot with the given stay removed.
func (s RoomSnapshot) Without(id stay.StayID) RoomSnapshot {
	out := RoomSnapshot{RoomID: s.RoomID, Label: s.Label}
	if s.Current != nil && s.Current.ID != id {
		cur := *s.Current
		out.Current = &cur
	}
	for _, ref := range s.Future {
		if ref.ID == id {
			continue
		}
		out.Future = append(out.Future, ref)
	}
	return out
}

// Find locates a stay in the snapshot.
func (s RoomSnapshot) Find(id stay.StayID) (StayRef, bool) {
	for _, ref := range s.Stays() {
		if ref.ID == id {
			return ref, true
		}
	}
	return StayRef{}, false
}

// NightSet is a set of calendar nights keyed by ISO day; the value is the
// occupying stay where known.
type NightSet map[string]stay.StayID

func (n NightSet) Has(day time.Time) bool {
	_, ok := n[daterange.FormatDay(day)]
	return ok
}

// Occupant returns the stay holding the night, if any.
func (n NightSet) Occupant(day time.Time) (stay.StayID, bool) {
	id, ok := n[daterange.FormatDay(day)]
	return id, ok
}

func (n NightSet) Len() int { return len(n) }

// Sorted lists the nights in chronological order.
func (n NightSet) Sorted() []time.Time {
	out := make([]time.Time, 0, len(n))
	for key := range n {
		out = append(out, daterange.MustDay(key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// BlockingRange is one occupancy-contributing stay, kept for rendering.
type BlockingRange struct {
	StayID    stay.StayID
	Range     daterange.DateRange
	Status    stay.Status
	GuestName string
}

// Index is the derived availability of one room. It is rebuilt from a
// snapshot, never mutated after BuildIndex returns.
type Index struct {
	RoomID         room.RoomID
	Label          string
	OccupiedNights NightSet
	ArrivalDays    NightSet
	BlockingRanges []BlockingRange
}

// BuildIndex derives the availability of a room from its snapshot. Only
// pending, confirmed and checked-in stays occupy nights; every stay's
// check-in is recorded as an arrival day.
func BuildIndex(snapshot RoomSnapshot) *Index {
	idx := &Index{
		RoomID:         snapshot.RoomID,
		Label:          snapshot.Label,
		OccupiedNights: NightSet{},
		ArrivalDays:    NightSet{},
	}
	for _, ref := range snapshot.Stays() {
		if !ref.CheckIn.IsZero() {
			idx.ArrivalDays[daterange.FormatDay(ref.CheckIn)] = ref.ID
		}
		if !ref.Status.Blocks() {
			continue
		}
		dr := ref.Range()
		nights := dr.Nights()
		if len(nights) == 0 {
			continue
		}
		for _, night := range nights {
			idx.OccupiedNights[daterange.FormatDay(night)] = ref.ID
		}
		idx.BlockingRanges = append(idx.BlockingRanges, BlockingRange{
			StayID:    ref.ID,
			Range:     dr,
			Status:    ref.Status,
			GuestName: ref.GuestName,
		})
	}
	sort.SliceStable(idx.BlockingRanges, func(i, j int) bool {
		return idx.BlockingRanges[i].Range.CheckIn.Before(idx.BlockingRanges[j].Range.CheckIn)
	})
	return idx
}

// IsFree reports whether no night of the range is occupied.
func (i *Index) IsFree(dr daterange.DateRange) bool {
	for _, night := range dr.Nights() {
		if i.OccupiedNights.Has(night) {
			return false
		}
	}
	return true
}

// DisplayLabel falls back to the room id when the snapshot had no label.
func (i *Index) DisplayLabel() string {
	if i.Label != "" {
		return i.Label
	}
	return string(i.RoomID)
}
