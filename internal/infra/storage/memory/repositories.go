package memory

import (
	"context"

	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

// RoomRepository reads committed rooms and stages saves in its unit.
type RoomRepository struct {
	unit *Unit
}

func (r RoomRepository) ByID(ctx context.Context, id domainroom.RoomID) (*domainroom.Room, error) {
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	if staged, ok := r.unit.rooms[id]; ok {
		out := staged
		return &out, nil
	}
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	stored, ok := r.unit.store.rooms[id]
	if !ok {
		return nil, domainroom.ErrRoomNotFound
	}
	return &stored, nil
}

func (r RoomRepository) Save(ctx context.Context, room *domainroom.Room) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	r.unit.rooms[room.ID] = *room
	return nil
}

func (r RoomRepository) List(ctx context.Context) ([]*domainroom.Room, error) {
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	r.unit.store.mu.RLock()
	merged := make(map[domainroom.RoomID]domainroom.Room, len(r.unit.store.rooms)+len(r.unit.rooms))
	for id, room := range r.unit.store.rooms {
		merged[id] = room
	}
	r.unit.store.mu.RUnlock()
	for id, room := range r.unit.rooms {
		merged[id] = room
	}
	out := make([]*domainroom.Room, 0, len(merged))
	for _, room := range merged {
		room := room
		out = append(out, &room)
	}
	return out, nil
}

// StayRepository serves stays with optimistic versioning: Save bumps the
// version and Commit fails if another unit committed the stay in between.
type StayRepository struct {
	unit *Unit
}

func (r StayRepository) ByID(ctx context.Context, id domainstay.StayID) (*domainstay.Stay, error) {
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	if staged, ok := r.unit.stays[id]; ok {
		out := staged.value
		return &out, nil
	}
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	stored, ok := r.unit.store.stays[id]
	if !ok {
		return nil, domainstay.ErrStayNotFound
	}
	return &stored, nil
}

func (r StayRepository) Save(ctx context.Context, s *domainstay.Stay) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	expected := s.Version
	if prev, ok := r.unit.stays[s.ID]; ok {
		expected = prev.expected
	}
	s.Version++
	r.unit.stays[s.ID] = stagedStay{value: cloneStay(s), expected: expected}
	return nil
}

func (r StayRepository) ListByRoom(ctx context.Context, roomID domainroom.RoomID) ([]*domainstay.Stay, error) {
	return r.list(func(s *domainstay.Stay) bool { return s.RoomID == roomID }), nil
}

func (r StayRepository) ListByGroup(ctx context.Context, code string) ([]*domainstay.Stay, error) {
	return r.list(func(s *domainstay.Stay) bool { return code != "" && s.GroupCode == code }), nil
}

func (r StayRepository) list(match func(*domainstay.Stay) bool) []*domainstay.Stay {
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	r.unit.store.mu.RLock()
	merged := make(map[domainstay.StayID]domainstay.Stay, len(r.unit.store.stays))
	for id, s := range r.unit.store.stays {
		merged[id] = s
	}
	r.unit.store.mu.RUnlock()
	for id, staged := range r.unit.stays {
		merged[id] = staged.value
	}
	out := make([]*domainstay.Stay, 0)
	for _, s := range merged {
		s := s
		if match(&s) {
			out = append(out, &s)
		}
	}
	sortStays(out)
	return out
}

type GroupRepository struct {
	unit *Unit
}

func (r GroupRepository) ByCode(ctx context.Context, code string) (*domaingroup.Group, error) {
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	if staged, ok := r.unit.groups[code]; ok {
		out := staged
		return &out, nil
	}
	r.unit.store.mu.RLock()
	defer r.unit.store.mu.RUnlock()
	stored, ok := r.unit.store.groups[code]
	if !ok {
		return nil, domaingroup.ErrGroupNotFound
	}
	return &stored, nil
}

func (r GroupRepository) Save(ctx context.Context, g *domaingroup.Group) error {
	if r.unit.readOnly {
		return ErrReadOnly
	}
	r.unit.mu.Lock()
	defer r.unit.mu.Unlock()
	r.unit.groups[g.Code] = cloneGroup(g)
	return nil
}

var (
	_ domainroom.Repository  = RoomRepository{}
	_ domainstay.Repository  = StayRepository{}
	_ domaingroup.Repository = GroupRepository{}
)
