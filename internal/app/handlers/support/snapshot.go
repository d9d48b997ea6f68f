package support

import (
	"context"
	"sort"
	"time"

	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// SnapshotFromStays splits a room's stays into the current stay and the
// stays that still matter as of today. Stays that departed on or before
// today are dropped.
func SnapshotFromStays(r *room.Room, stays []*stay.Stay, today time.Time) availability.RoomSnapshot {
	today = daterange.Day(today)
	snap := availability.RoomSnapshot{RoomID: r.ID, Label: r.DisplayLabel()}

	sorted := append([]*stay.Stay(nil), stays...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.CheckIn.Before(sorted[j].Range.CheckIn)
	})
	for _, s := range sorted {
		ref := RefOf(s)
		isCurrent := s.Status == stay.StatusCheckedIn ||
			(s.Status.Blocks() && s.Range.ContainsDate(today))
		if isCurrent && snap.Current == nil {
			snap.Current = &ref
			continue
		}
		if !s.Range.CheckOut.After(today) {
			continue
		}
		snap.Future = append(snap.Future, ref)
	}
	return snap
}

func RefOf(s *stay.Stay) availability.StayRef {
	return availability.StayRef{
		ID:        s.ID,
		CheckIn:   s.Range.CheckIn,
		CheckOut:  s.Range.CheckOut,
		Status:    s.Status,
		GuestName: s.GuestName,
	}
}

// LoadSnapshot reads a room and its stays from the unit of work.
func LoadSnapshot(ctx context.Context, unit uow.UnitOfWork, roomID room.RoomID, today time.Time) (*room.Room, availability.RoomSnapshot, error) {
	r, err := unit.Rooms().ByID(ctx, roomID)
	if err != nil {
		return nil, availability.RoomSnapshot{}, err
	}
	stays, err := unit.Stays().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, availability.RoomSnapshot{}, err
	}
	return r, SnapshotFromStays(r, stays, today), nil
}

// IndexFor builds (or fetches from cache) the room's availability with the
// given stay excluded. exclude may be empty.
func IndexFor(ctx context.Context, unit uow.UnitOfWork, cache *availability.Cache, roomID room.RoomID, exclude stay.StayID, today time.Time) (*availability.Index, error) {
	_, snap, err := LoadSnapshot(ctx, unit, roomID, today)
	if err != nil {
		return nil, err
	}
	if exclude != "" {
		// excluded variants are one-off; caching them would evict the full index
		return availability.BuildIndex(snap.Without(exclude)), nil
	}
	if cache != nil {
		return cache.Index(snap), nil
	}
	return availability.BuildIndex(snap), nil
}
