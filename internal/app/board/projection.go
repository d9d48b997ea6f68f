package board

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"frontdesk/internal/app/mutation"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/stay"
)

// Projection is the visual model of the reservation calendar: one row per
// room holding the stays drawn on it. Optimistic gestures move placements
// directly; Rerender and Invalidate rebuild rows from the snapshot source.
type Projection struct {
	source mutation.SnapshotSource
	today  func() time.Time
	logger *slog.Logger

	mu         sync.RWMutex
	rooms      []room.RoomID
	labels     map[room.RoomID]string
	placements map[stay.StayID]mutation.Placement
	renders    int
}

func NewProjection(source mutation.SnapshotSource, today func() time.Time, logger *slog.Logger) *Projection {
	if today == nil {
		today = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Projection{
		source:     source,
		today:      today,
		logger:     logger,
		labels:     make(map[room.RoomID]string),
		placements: make(map[stay.StayID]mutation.Placement),
	}
}

// Track adds rooms to the board and loads them.
func (p *Projection) Track(ctx context.Context, rooms ...room.RoomID) error {
	p.mu.Lock()
	for _, id := range rooms {
		if _, ok := p.labels[id]; !ok {
			p.rooms = append(p.rooms, id)
			p.labels[id] = string(id)
		}
	}
	p.mu.Unlock()
	return p.reload(ctx, rooms)
}

func (p *Projection) Place(_ context.Context, pl mutation.Placement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placements[pl.StayID] = pl
}

func (p *Projection) Remove(_ context.Context, id stay.StayID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.placements, id)
}

// Rerender discards every placement and reloads all tracked rooms.
func (p *Projection) Rerender(ctx context.Context) error {
	p.mu.Lock()
	rooms := append([]room.RoomID(nil), p.rooms...)
	p.placements = make(map[stay.StayID]mutation.Placement)
	p.renders++
	p.mu.Unlock()
	return p.reload(ctx, rooms)
}

// Invalidate reloads the given rooms; untracked rooms are ignored.
func (p *Projection) Invalidate(ctx context.Context, rooms ...room.RoomID) {
	p.mu.RLock()
	tracked := make([]room.RoomID, 0, len(rooms))
	for _, id := range rooms {
		if _, ok := p.labels[id]; ok {
			tracked = append(tracked, id)
		}
	}
	p.mu.RUnlock()
	if err := p.reload(ctx, tracked); err != nil {
		p.logger.WarnContext(ctx, "board invalidation failed", "rooms", tracked, "error", err)
	}
}

func (p *Projection) reload(ctx context.Context, rooms []room.RoomID) error {
	today := p.today()
	for _, id := range rooms {
		snap, err := p.source.RoomSnapshot(ctx, id, today)
		if err != nil {
			return err
		}
		p.replaceRow(snap)
	}
	return nil
}

func (p *Projection) replaceRow(snap availability.RoomSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pl := range p.placements {
		if pl.RoomID == snap.RoomID && !pl.Tentative {
			delete(p.placements, id)
		}
	}
	if snap.Label != "" {
		p.labels[snap.RoomID] = snap.Label
	}
	for _, ref := range snap.Stays() {
		if !ref.Status.Blocks() {
			continue
		}
		p.placements[ref.ID] = mutation.Placement{
			StayID:    ref.ID,
			RoomID:    snap.RoomID,
			Range:     ref.Range(),
			Status:    ref.Status,
			GuestName: ref.GuestName,
		}
	}
}

// Row returns the placements drawn on a room, ordered by check-in.
func (p *Projection) Row(id room.RoomID) []mutation.Placement {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]mutation.Placement, 0)
	for _, pl := range p.placements {
		if pl.RoomID == id {
			out = append(out, pl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Range.CheckIn.Equal(out[j].Range.CheckIn) {
			return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
		}
		return out[i].StayID < out[j].StayID
	})
	return out
}

func (p *Projection) Placement(id stay.StayID) (mutation.Placement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pl, ok := p.placements[id]
	return pl, ok
}

func (p *Projection) Label(id room.RoomID) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.labels[id]
}

// Renders counts full rerenders.
func (p *Projection) Renders() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.renders
}

var (
	_ mutation.Board       = (*Projection)(nil)
	_ mutation.Invalidator = (*Projection)(nil)
)
