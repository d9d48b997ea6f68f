package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	appoutbox "frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/conflict"
	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrReadOnly             = errors.New("memory: unit of work is read-only")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
)

// Factory wires the in-memory store into a unit-of-work boundary. Writes are
// staged per unit and applied under the store lock on Commit.
type Factory struct {
	Store  *Store
	Outbox *Outbox
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:    f.Store,
		outbox:   f.Outbox,
		readOnly: opts.ReadOnly,
		rooms:    make(map[domainroom.RoomID]domainroom.Room),
		stays:    make(map[domainstay.StayID]stagedStay),
		groups:   make(map[string]domaingroup.Group),
	}, nil
}

type stagedStay struct {
	value    domainstay.Stay
	expected int64
}

type Unit struct {
	store    *Store
	outbox   *Outbox
	readOnly bool

	mu     sync.Mutex
	done   bool
	rooms  map[domainroom.RoomID]domainroom.Room
	stays  map[domainstay.StayID]stagedStay
	groups map[string]domaingroup.Group
	events []appoutbox.EventRecord
}

func (u *Unit) Rooms() domainroom.Repository   { return RoomRepository{unit: u} }
func (u *Unit) Stays() domainstay.Repository   { return StayRepository{unit: u} }
func (u *Unit) Groups() domaingroup.Repository { return GroupRepository{unit: u} }

func (u *Unit) stage(rec appoutbox.EventRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, rec)
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true

	u.store.mu.Lock()
	for id, staged := range u.stays {
		current, exists := u.store.stays[id]
		if (exists && current.Version != staged.expected) || (!exists && staged.expected != 0) {
			u.store.mu.Unlock()
			return fmt.Errorf("%w: stay %s", domainstay.ErrConcurrentUpdate, id)
		}
	}
	if err := u.checkOccupancy(); err != nil {
		u.store.mu.Unlock()
		return err
	}
	for id, r := range u.rooms {
		u.store.rooms[id] = r
	}
	for id, staged := range u.stays {
		u.store.stays[id] = staged.value
	}
	for code, g := range u.groups {
		u.store.groups[code] = g
	}
	u.store.mu.Unlock()

	if u.outbox != nil && len(u.events) > 0 {
		u.outbox.enqueue(u.events)
	}
	u.events = nil
	return nil
}

// checkOccupancy re-validates every staged stay that newly claims nights
// against what is committed now. Caller holds store.mu.
func (u *Unit) checkOccupancy() error {
	ids := make([]domainstay.StayID, 0, len(u.stays))
	for id, staged := range u.stays {
		if u.claimsNights(staged.value) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	snapshots := map[domainroom.RoomID]*availability.RoomSnapshot{}
	snapshotFor := func(roomID domainroom.RoomID) *availability.RoomSnapshot {
		if snap, ok := snapshots[roomID]; ok {
			return snap
		}
		snap := &availability.RoomSnapshot{RoomID: roomID, Label: string(roomID)}
		if r, ok := u.store.rooms[roomID]; ok {
			snap.Label = r.DisplayLabel()
		}
		for id, committed := range u.store.stays {
			if _, replaced := u.stays[id]; replaced || committed.RoomID != roomID {
				continue
			}
			snap.Future = append(snap.Future, refOf(committed))
		}
		snapshots[roomID] = snap
		return snap
	}

	var rooms []conflict.RoomConflict
	for _, id := range ids {
		staged := u.stays[id].value
		snap := snapshotFor(staged.RoomID)
		err := conflict.Validate(staged.Range.CheckIn, staged.Range.CheckOut, availability.BuildIndex(*snap)).Err()
		var ce *conflict.ConflictError
		if errors.As(err, &ce) {
			rooms = append(rooms, ce.Rooms...)
			continue
		}
		snap.Future = append(snap.Future, refOf(staged))
	}
	if len(rooms) > 0 {
		return &conflict.ConflictError{Rooms: rooms}
	}
	return nil
}

// claimsNights reports whether the staged stay occupies nights it did not
// hold in the committed state.
func (u *Unit) claimsNights(s domainstay.Stay) bool {
	if !s.Status.Blocks() {
		return false
	}
	current, exists := u.store.stays[s.ID]
	if !exists || !current.Status.Blocks() {
		return true
	}
	return current.RoomID != s.RoomID || !current.Range.Equal(s.Range)
}

func refOf(s domainstay.Stay) availability.StayRef {
	return availability.StayRef{ID: s.ID, CheckIn: s.Range.CheckIn, CheckOut: s.Range.CheckOut, Status: s.Status, GuestName: s.GuestName}
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.rooms = map[domainroom.RoomID]domainroom.Room{}
	u.stays = map[domainstay.StayID]stagedStay{}
	u.groups = map[string]domaingroup.Group{}
	u.events = nil
	return nil
}

var _ uow.UoWFactory = Factory{}
