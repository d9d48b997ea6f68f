package groupbooking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/conflict"
	"frontdesk/internal/domain/group"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

const defaultParallelism = 8

type RoomRequest struct {
	RoomID    room.RoomID
	GuestName string
	Guests    int
	Notes     string
}

// GroupBookingRequest is a new multi-room booking. Rooms with an empty
// RoomID are unselected rows and ignored.
type GroupBookingRequest struct {
	CheckIn     time.Time
	CheckOut    time.Time
	Rooms       []RoomRequest
	Notes       string
	PromoCode   string
	VoucherCode string
	// IdempotencyKey is forwarded to the writer so a retried submit books once.
	IdempotencyKey string
}

type GroupStay struct {
	StayID stay.StayID
	RoomID room.RoomID
}

// GroupUpdateRequest moves every stay of a group to a new shared window.
type GroupUpdateRequest struct {
	GroupCode string
	CheckIn   time.Time
	CheckOut  time.Time
	Stays     []GroupStay
}

type GroupResult struct {
	GroupCode string
	Stays     []dto.StayRef
}

// GroupWriter creates a whole group in one request.
type GroupWriter interface {
	CreateGroup(ctx context.Context, req GroupBookingRequest) (dto.Group, error)
}

type Config struct {
	Source      mutation.SnapshotSource
	Groups      GroupWriter
	Stays       mutation.StayWriter
	Invalidator mutation.Invalidator
	Cache       *availability.Cache
	Logger      *slog.Logger
	Today       func() time.Time
	// Parallelism caps concurrent snapshot reads and stay updates.
	Parallelism int
}

type Coordinator struct {
	cfg Config
}

func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Source == nil || cfg.Groups == nil || cfg.Stays == nil {
		panic("groupbooking: source, group writer and stay writer are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Today == nil {
		cfg.Today = time.Now
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	return &Coordinator{cfg: cfg}
}

// SubmitGroup validates a new group and creates it with a single request.
// Duplicate rooms are rejected first, before any read or write.
func (c *Coordinator) SubmitGroup(ctx context.Context, req GroupBookingRequest) (GroupResult, error) {
	ids := make([]room.RoomID, 0, len(req.Rooms))
	for _, r := range req.Rooms {
		ids = append(ids, r.RoomID)
	}
	if err := group.CheckDistinctRooms(ids); err != nil {
		return GroupResult{}, err
	}
	selected := make([]RoomRequest, 0, len(req.Rooms))
	for _, r := range req.Rooms {
		if r.RoomID != "" {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return GroupResult{}, group.ErrNoRooms
	}

	window := daterange.DateRange{CheckIn: daterange.Day(req.CheckIn), CheckOut: daterange.Day(req.CheckOut)}
	today := c.cfg.Today()
	if err := stay.CheckRange(window, today); err != nil {
		return GroupResult{}, err
	}

	targets := make([]GroupStay, 0, len(selected))
	for _, r := range selected {
		targets = append(targets, GroupStay{RoomID: r.RoomID})
	}
	snaps, err := c.load(ctx, targets, today)
	if err != nil {
		return GroupResult{}, err
	}
	if err := c.check(window, targets, snaps); err != nil {
		return GroupResult{}, err
	}

	payload := req
	payload.Rooms = selected
	payload.CheckIn, payload.CheckOut = window.CheckIn, window.CheckOut
	created, err := c.cfg.Groups.CreateGroup(ctx, payload)
	if err != nil {
		return GroupResult{}, &mutation.PersistenceError{Err: err}
	}
	c.invalidate(ctx, selectedRoomIDs(targets))
	c.cfg.Logger.InfoContext(ctx, "group booked", "group_code", created.Code, "rooms", len(created.Stays))
	return GroupResult{GroupCode: created.Code, Stays: created.Stays}, nil
}

// UpdateGroup moves every stay of the group to the new window. The updates
// are independent requests issued concurrently; when some fail the result is
// a *PartialGroupFailure and the successful ones stay in place.
func (c *Coordinator) UpdateGroup(ctx context.Context, req GroupUpdateRequest) (GroupResult, error) {
	if len(req.Stays) == 0 {
		return GroupResult{}, group.ErrNoRooms
	}
	ids := make([]room.RoomID, 0, len(req.Stays))
	for _, s := range req.Stays {
		ids = append(ids, s.RoomID)
	}
	if err := group.CheckDistinctRooms(ids); err != nil {
		return GroupResult{}, err
	}
	window := daterange.DateRange{CheckIn: daterange.Day(req.CheckIn), CheckOut: daterange.Day(req.CheckOut)}
	today := c.cfg.Today()
	if err := window.Validate(); err != nil {
		return GroupResult{}, &stay.PreconditionError{Kind: stay.PreconditionInvalidRange, Reason: err.Error()}
	}

	snaps, err := c.load(ctx, req.Stays, today)
	if err != nil {
		return GroupResult{}, err
	}
	for i, s := range req.Stays {
		ref, ok := snaps[i].Find(s.StayID)
		if !ok {
			return GroupResult{}, fmt.Errorf("%w: %s in room %s", stay.ErrStayNotFound, s.StayID, s.RoomID)
		}
		if err := stay.CheckMutation(ref.Status, window, today); err != nil {
			return GroupResult{}, err
		}
	}
	if err := c.check(window, req.Stays, snaps); err != nil {
		return GroupResult{}, err
	}

	var (
		mu        sync.Mutex
		succeeded = make([]dto.StayRef, len(req.Stays))
		failures  []RoomFailure
		ok        = make([]bool, len(req.Stays))
	)
	var g errgroup.Group
	g.SetLimit(c.cfg.Parallelism)
	for i, s := range req.Stays {
		g.Go(func() error {
			res, err := c.cfg.Stays.UpdateStay(ctx, s.StayID, mutation.UpdateStayRequest{CheckIn: window.CheckIn, CheckOut: window.CheckOut})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, RoomFailure{RoomID: s.RoomID, StayID: s.StayID, Err: err})
				return nil
			}
			succeeded[i], ok[i] = res, true
			return nil
		})
	}
	_ = g.Wait()

	done := make([]dto.StayRef, 0, len(req.Stays))
	for i := range succeeded {
		if ok[i] {
			done = append(done, succeeded[i])
		}
	}
	sortFailures(failures, req.Stays)
	c.invalidate(ctx, ids)

	switch {
	case len(failures) == 0:
		c.cfg.Logger.InfoContext(ctx, "group rescheduled", "group_code", req.GroupCode, "range", window.String())
		return GroupResult{GroupCode: req.GroupCode, Stays: done}, nil
	case len(done) == 0:
		errs := make([]error, 0, len(failures))
		for _, f := range failures {
			errs = append(errs, f.Err)
		}
		c.cfg.Logger.WarnContext(ctx, "group reschedule failed", "group_code", req.GroupCode, "rooms", len(failures))
		return GroupResult{GroupCode: req.GroupCode}, &mutation.PersistenceError{Err: errors.Join(errs...)}
	default:
		partial := &PartialGroupFailure{GroupCode: req.GroupCode, Succeeded: done, Failed: failures}
		c.cfg.Logger.WarnContext(ctx, "group reschedule partially applied",
			"group_code", req.GroupCode,
			"succeeded", partial.SucceededRooms(),
			"failed", partial.FailedRooms(),
		)
		return GroupResult{GroupCode: req.GroupCode, Stays: done}, partial
	}
}

// load reads every room's snapshot concurrently.
func (c *Coordinator) load(ctx context.Context, stays []GroupStay, today time.Time) ([]availability.RoomSnapshot, error) {
	snaps := make([]availability.RoomSnapshot, len(stays))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallelism)
	for i, s := range stays {
		g.Go(func() error {
			snap, err := c.cfg.Source.RoomSnapshot(gctx, s.RoomID, today)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// check validates the window against every room, leaving each room's own
// group stay out. All conflicting rooms are reported together.
func (c *Coordinator) check(window daterange.DateRange, stays []GroupStay, snaps []availability.RoomSnapshot) error {
	indexes := make([]conflict.RoomIndex, 0, len(stays))
	for i, s := range stays {
		var idx *availability.Index
		switch {
		case s.StayID != "":
			idx = availability.BuildIndex(snaps[i].Without(s.StayID))
		case c.cfg.Cache != nil:
			idx = c.cfg.Cache.Index(snaps[i])
		default:
			idx = availability.BuildIndex(snaps[i])
		}
		indexes = append(indexes, conflict.RoomIndex{RoomID: s.RoomID, Label: snaps[i].Label, Index: idx})
	}
	return conflict.ValidateGroup(window.CheckIn, window.CheckOut, indexes).Err()
}

func (c *Coordinator) invalidate(ctx context.Context, rooms []room.RoomID) {
	if c.cfg.Cache != nil {
		c.cfg.Cache.Evict(rooms...)
	}
	if c.cfg.Invalidator != nil {
		c.cfg.Invalidator.Invalidate(ctx, rooms...)
	}
}

func selectedRoomIDs(stays []GroupStay) []room.RoomID {
	out := make([]room.RoomID, 0, len(stays))
	for _, s := range stays {
		out = append(out, s.RoomID)
	}
	return out
}

// sortFailures keeps failures in request order regardless of completion order.
func sortFailures(failures []RoomFailure, order []GroupStay) {
	pos := make(map[stay.StayID]int, len(order))
	for i, s := range order {
		pos[s.StayID] = i
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return pos[failures[i].StayID] < pos[failures[j].StayID]
	})
}
