package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/conflict"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

type GestureKind string

const (
	GestureCreate GestureKind = "create"
	GestureMove   GestureKind = "move"
	GestureResize GestureKind = "resize"
)

// Gesture is a finished drag, resize or range selection. For move and resize
// FromRoom is where the stay is drawn now; RoomID is the drop target and may
// be empty to keep the room. Create gestures carry the guest details instead
// of a StayID.
type Gesture struct {
	Kind      GestureKind
	StayID    stay.StayID
	FromRoom  room.RoomID
	RoomID    room.RoomID
	CheckIn   time.Time
	CheckOut  time.Time
	GuestName string
	Guests    int
	Notes     string
}

func (g Gesture) targetRoom() room.RoomID {
	if g.RoomID != "" {
		return g.RoomID
	}
	return g.FromRoom
}

type OutcomeKind string

const (
	OutcomeCommitted OutcomeKind = "committed"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeDeclined  OutcomeKind = "declined"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeBusy      OutcomeKind = "busy"
)

// Outcome describes how a gesture ended. Trace lists every state visited,
// starting and ending with idle.
type Outcome struct {
	Kind     OutcomeKind
	Original Placement
	Proposed daterange.DateRange
	Prompt   Prompt
	Stay     *dto.StayRef
	Reason   error
	Trace    []StateName
}

type Config struct {
	Source      SnapshotSource
	Writer      StayWriter
	Confirmer   Confirmer
	Board       Board
	Invalidator Invalidator
	Cache       *availability.Cache
	Recorder    Recorder
	Logger      *slog.Logger
	// Today returns the current calendar day; past-dated proposals are rejected against it.
	Today func() time.Time
	// WriteTimeout bounds the persistence call; zero means no deadline.
	WriteTimeout time.Duration
}

// Controller drives stay gestures through validation, optimistic placement,
// confirmation and persistence. Gestures on different stays run
// independently; a second gesture on a stay that is still in flight is
// refused with ErrMutationInFlight.
type Controller struct {
	cfg Config

	mu       sync.Mutex
	inflight map[stay.StayID]State
}

func NewController(cfg Config) *Controller {
	if cfg.Source == nil || cfg.Writer == nil || cfg.Confirmer == nil {
		panic("mutation: source, writer and confirmer are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Today == nil {
		cfg.Today = time.Now
	}
	return &Controller{cfg: cfg, inflight: make(map[stay.StayID]State)}
}

// State reports the state of the gesture in flight for a stay, or Idle.
func (c *Controller) State(id stay.StayID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.inflight[id]; ok {
		return st
	}
	return Idle{}
}

// Submit runs one gesture to completion. Rejections return the precondition
// or conflict error; failed writes return a *PersistenceError. A declined
// confirmation is not an error.
func (c *Controller) Submit(ctx context.Context, g Gesture) (Outcome, error) {
	switch g.Kind {
	case GestureCreate, GestureMove, GestureResize:
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownGesture, g.Kind)
	}
	if g.Kind != GestureCreate {
		if !c.acquire(g.StayID) {
			c.record(g.Kind, OutcomeBusy)
			return Outcome{Kind: OutcomeBusy, Reason: ErrMutationInFlight}, ErrMutationInFlight
		}
		defer c.release(g.StayID)
	}

	run := &run{c: c, g: g, trace: []StateName{StateIdle}}
	out, err := run.execute(ctx)
	out.Trace = run.trace
	c.record(g.Kind, out.Kind)
	return out, err
}

func (c *Controller) acquire(id stay.StayID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = Idle{}
	return true
}

func (c *Controller) release(id stay.StayID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

func (c *Controller) record(kind GestureKind, outcome OutcomeKind) {
	if c.cfg.Recorder != nil {
		c.cfg.Recorder.ObserveMutation(string(kind), string(outcome))
	}
}

type run struct {
	c     *Controller
	g     Gesture
	trace []StateName
}

func (r *run) enter(ctx context.Context, next State) {
	prev := r.trace[len(r.trace)-1]
	r.trace = append(r.trace, next.Name())
	if r.g.StayID != "" {
		r.c.mu.Lock()
		if _, ok := r.c.inflight[r.g.StayID]; ok {
			r.c.inflight[r.g.StayID] = next
		}
		r.c.mu.Unlock()
	}
	r.c.cfg.Logger.DebugContext(ctx, "stay mutation transition",
		"kind", r.g.Kind,
		"stay_id", r.g.StayID,
		"from", prev,
		"to", next.Name(),
	)
}

func (r *run) execute(ctx context.Context) (Outcome, error) {
	today := daterange.Day(r.c.cfg.Today())
	proposed := daterange.DateRange{CheckIn: daterange.Day(r.g.CheckIn), CheckOut: daterange.Day(r.g.CheckOut)}

	var idle Idle
	original, target, err := r.locate(ctx, today)
	if err != nil {
		// the pre-gesture placement is unknown, so the board is reloaded instead
		validating := idle.Begin(r.g, Placement{StayID: r.g.StayID, RoomID: r.g.FromRoom}, proposed)
		r.enter(ctx, validating)
		return r.reject(ctx, validating, err, r.rerender)
	}
	validating := idle.Begin(r.g, original, proposed)
	r.enter(ctx, validating)

	if err := r.validate(validating, target, today); err != nil {
		return r.reject(ctx, validating, err, func(ctx context.Context) { r.restore(ctx, validating) })
	}

	prompt := r.prompt(validating)
	applied := validating.Apply(prompt)
	r.enter(ctx, applied)
	r.place(ctx, validating)

	accepted, confirmErr := r.c.cfg.Confirmer.Confirm(ctx, prompt)
	if confirmErr != nil || !accepted {
		reverting := applied.Decline(confirmErr)
		r.enter(ctx, reverting)
		r.restore(ctx, validating)
		r.enter(ctx, reverting.Restore())
		if confirmErr != nil {
			return r.outcome(OutcomeFailed, validating, prompt, nil, confirmErr), confirmErr
		}
		return r.outcome(OutcomeDeclined, validating, prompt, nil, nil), nil
	}

	confirming := applied.Accept()
	r.enter(ctx, confirming)
	result, err := r.write(ctx, validating)
	if err != nil {
		perr := &PersistenceError{Err: err}
		reverting := confirming.Fail(perr)
		r.enter(ctx, reverting)
		r.restore(ctx, validating)
		r.rerender(ctx)
		r.enter(ctx, reverting.Restore())
		r.c.cfg.Logger.WarnContext(ctx, "stay mutation reverted", "stay_id", r.g.StayID, "error", err)
		return r.outcome(OutcomeFailed, validating, prompt, nil, perr), perr
	}

	committed := confirming.Commit(result)
	r.enter(ctx, committed)
	r.settle(ctx, validating, result)
	r.enter(ctx, committed.Settle())
	r.c.cfg.Logger.InfoContext(ctx, "stay mutation committed",
		"stay_id", result.ID,
		"room_id", result.RoomID,
		"range", proposed.String(),
	)
	return r.outcome(OutcomeCommitted, validating, prompt, &result, nil), nil
}

func (r *run) reject(ctx context.Context, v Validating, err error, undo func(context.Context)) (Outcome, error) {
	rejected := v.Reject(err)
	r.enter(ctx, rejected)
	undo(ctx)
	r.enter(ctx, rejected.Reset())
	r.c.cfg.Logger.InfoContext(ctx, "stay mutation rejected", "stay_id", r.g.StayID, "room_id", r.g.targetRoom(), "reason", err)
	return r.outcome(OutcomeRejected, v, Prompt{}, nil, err), err
}

func (r *run) rerender(ctx context.Context) {
	if r.c.cfg.Board == nil {
		return
	}
	if err := r.c.cfg.Board.Rerender(ctx); err != nil {
		r.c.cfg.Logger.WarnContext(ctx, "board rerender failed", "error", err)
	}
}

func (r *run) outcome(kind OutcomeKind, v Validating, prompt Prompt, result *dto.StayRef, reason error) Outcome {
	return Outcome{Kind: kind, Original: v.Original, Proposed: v.Proposed, Prompt: prompt, Stay: result, Reason: reason}
}

// locate finds the stay's pre-gesture placement and the target room's
// snapshot with the stay itself left out.
func (r *run) locate(ctx context.Context, today time.Time) (Placement, availability.RoomSnapshot, error) {
	target := r.g.targetRoom()
	if target == "" {
		return Placement{}, availability.RoomSnapshot{}, stay.ErrRoomRequired
	}
	if r.g.Kind == GestureCreate {
		snap, err := r.c.cfg.Source.RoomSnapshot(ctx, target, today)
		if err != nil {
			return Placement{}, availability.RoomSnapshot{}, err
		}
		return Placement{
			StayID:    stay.StayID("tentative-" + uuid.NewString()),
			RoomID:    target,
			GuestName: r.g.GuestName,
			Status:    stay.StatusPending,
			Tentative: true,
		}, snap, nil
	}

	origin := r.g.FromRoom
	if origin == "" {
		origin = target
	}
	from, err := r.c.cfg.Source.RoomSnapshot(ctx, origin, today)
	if err != nil {
		return Placement{}, availability.RoomSnapshot{}, err
	}
	ref, ok := from.Find(r.g.StayID)
	if !ok {
		if ref, ok, err = r.lookup(ctx, origin); err != nil {
			return Placement{}, availability.RoomSnapshot{}, err
		}
		if !ok {
			return Placement{}, availability.RoomSnapshot{}, fmt.Errorf("%w: %s in room %s", ErrStayNotInRoom, r.g.StayID, origin)
		}
	}
	original := Placement{
		StayID:    ref.ID,
		RoomID:    origin,
		Range:     ref.Range(),
		Status:    ref.Status,
		GuestName: ref.GuestName,
	}
	if target == origin {
		return original, from.Without(r.g.StayID), nil
	}
	to, err := r.c.cfg.Source.RoomSnapshot(ctx, target, today)
	if err != nil {
		return Placement{}, availability.RoomSnapshot{}, err
	}
	return original, to.Without(r.g.StayID), nil
}

// lookup reads a stay the snapshot left out, such as one that already
// departed, so validation can report its status.
func (r *run) lookup(ctx context.Context, origin room.RoomID) (availability.StayRef, bool, error) {
	reader, ok := r.c.cfg.Source.(StayReader)
	if !ok {
		return availability.StayRef{}, false, nil
	}
	found, err := reader.StayByID(ctx, r.g.StayID)
	if errors.Is(err, stay.ErrStayNotFound) {
		return availability.StayRef{}, false, nil
	}
	if err != nil {
		return availability.StayRef{}, false, err
	}
	if found.RoomID != "" && room.RoomID(found.RoomID) != origin {
		return availability.StayRef{}, false, nil
	}
	ref, err := found.ToAvailability()
	if err != nil {
		return availability.StayRef{}, false, err
	}
	return ref, true, nil
}

func (r *run) validate(v Validating, target availability.RoomSnapshot, today time.Time) error {
	if r.g.Kind == GestureCreate {
		if err := stay.CheckRange(v.Proposed, today); err != nil {
			return err
		}
	} else if err := stay.CheckMutation(v.Original.Status, v.Proposed, today); err != nil {
		return err
	}
	var idx *availability.Index
	if r.g.Kind == GestureCreate && r.c.cfg.Cache != nil {
		idx = r.c.cfg.Cache.Index(target)
	} else {
		idx = availability.BuildIndex(target)
	}
	return conflict.Validate(v.Proposed.CheckIn, v.Proposed.CheckOut, idx).Err()
}

func (r *run) prompt(v Validating) Prompt {
	p := Prompt{GuestName: v.Original.GuestName, NewDateRangeLabel: v.Proposed.Label()}
	if !v.Original.Tentative {
		p.OldDateRangeLabel = v.Original.Range.Label()
	}
	return p
}

func (r *run) place(ctx context.Context, v Validating) {
	if r.c.cfg.Board == nil {
		return
	}
	p := v.Original
	p.RoomID = r.g.targetRoom()
	p.Range = v.Proposed
	r.c.cfg.Board.Place(ctx, p)
}

// restore puts the board back to the pre-gesture placement.
func (r *run) restore(ctx context.Context, v Validating) {
	if r.c.cfg.Board == nil {
		return
	}
	if v.Original.Tentative {
		r.c.cfg.Board.Remove(ctx, v.Original.StayID)
		return
	}
	r.c.cfg.Board.Place(ctx, v.Original)
}

func (r *run) write(ctx context.Context, v Validating) (dto.StayRef, error) {
	if r.c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.c.cfg.WriteTimeout)
		defer cancel()
	}
	var (
		res dto.StayRef
		err error
	)
	if r.g.Kind == GestureCreate {
		res, err = r.c.cfg.Writer.CreateStay(ctx, CreateStayRequest{
			RoomID:    r.g.targetRoom(),
			CheckIn:   v.Proposed.CheckIn,
			CheckOut:  v.Proposed.CheckOut,
			GuestName: r.g.GuestName,
			Guests:    r.g.Guests,
			Notes:     r.g.Notes,
		})
	} else {
		req := UpdateStayRequest{CheckIn: v.Proposed.CheckIn, CheckOut: v.Proposed.CheckOut}
		if r.g.targetRoom() != v.Original.RoomID {
			req.RoomID = r.g.targetRoom()
		}
		res, err = r.c.cfg.Writer.UpdateStay(ctx, v.Original.StayID, req)
	}
	return res, err
}

// settle replaces the optimistic placement with the stored one and refreshes
// dependent views for every room the gesture touched.
func (r *run) settle(ctx context.Context, v Validating, result dto.StayRef) {
	rooms := []room.RoomID{v.Original.RoomID}
	if target := r.g.targetRoom(); target != v.Original.RoomID {
		rooms = append(rooms, target)
	}
	if r.c.cfg.Board != nil {
		if v.Original.Tentative {
			r.c.cfg.Board.Remove(ctx, v.Original.StayID)
		}
		placed := Placement{
			StayID:    stay.StayID(result.ID),
			RoomID:    r.g.targetRoom(),
			Range:     v.Proposed,
			Status:    v.Original.Status,
			GuestName: v.Original.GuestName,
		}
		if dr, err := result.Range(); err == nil {
			placed.Range = dr
		}
		if result.RoomID != "" {
			placed.RoomID = room.RoomID(result.RoomID)
		}
		if status, err := stay.ParseStatus(result.Status); err == nil {
			placed.Status = status
		}
		r.c.cfg.Board.Place(ctx, placed)
	}
	if r.c.cfg.Cache != nil {
		r.c.cfg.Cache.Evict(rooms...)
	}
	if r.c.cfg.Invalidator != nil {
		r.c.cfg.Invalidator.Invalidate(ctx, rooms...)
	}
}
