package memory

import (
	"sort"
	"sync"

	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

// Store holds committed rooms, stays and groups. Units of work read through
// it and stage their writes until Commit.
type Store struct {
	mu     sync.RWMutex
	rooms  map[domainroom.RoomID]domainroom.Room
	stays  map[domainstay.StayID]domainstay.Stay
	groups map[string]domaingroup.Group
}

func NewStore() *Store {
	return &Store{
		rooms:  make(map[domainroom.RoomID]domainroom.Room),
		stays:  make(map[domainstay.StayID]domainstay.Stay),
		groups: make(map[string]domaingroup.Group),
	}
}

// SeedRooms stores rooms directly, bypassing units of work.
func (s *Store) SeedRooms(rooms ...*domainroom.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rooms {
		if r != nil {
			s.rooms[r.ID] = *r
		}
	}
}

// SeedStays stores stays directly with their current version.
func (s *Store) SeedStays(stays ...*domainstay.Stay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range stays {
		if st != nil {
			s.stays[st.ID] = cloneStay(st)
		}
	}
}

func cloneStay(s *domainstay.Stay) domainstay.Stay {
	out := *s
	out.ClearEvents()
	return out
}

func cloneGroup(g *domaingroup.Group) domaingroup.Group {
	out := *g
	out.RoomIDs = append([]domainroom.RoomID(nil), g.RoomIDs...)
	out.ClearEvents()
	return out
}

func sortStays(list []*domainstay.Stay) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Range.CheckIn.Equal(list[j].Range.CheckIn) {
			return list[i].Range.CheckIn.Before(list[j].Range.CheckIn)
		}
		return list[i].ID < list[j].ID
	})
}
