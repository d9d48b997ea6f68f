package mutation

import (
	"frontdesk/internal/app/dto"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

type StateName string

const (
	StateIdle                  StateName = "idle"
	StateValidating            StateName = "validating"
	StateRejected              StateName = "rejected"
	StateOptimisticallyApplied StateName = "optimistically_applied"
	StateConfirming            StateName = "confirming"
	StateCommitted             StateName = "committed"
	StateReverting             StateName = "reverting"
)

// State is one step of a mutation gesture. The set is closed: only the types
// in this file implement it, and each exposes only its legal transitions.
type State interface {
	Name() StateName
	isState()
}

type Idle struct{}

// Validating holds the gesture, the pre-gesture placement and the proposal.
type Validating struct {
	Gesture  Gesture
	Original Placement
	Proposed daterange.DateRange
}

type Rejected struct {
	Attempt Validating
	Reason  error
}

type OptimisticallyApplied struct {
	Attempt Validating
	Prompt  Prompt
}

type Confirming struct {
	Attempt Validating
	Prompt  Prompt
}

type Committed struct {
	Attempt Validating
	Result  dto.StayRef
}

// Reverting restores the attempt's Original placement. Reason is nil when the
// user declined.
type Reverting struct {
	Attempt Validating
	Reason  error
}

func (Idle) Name() StateName                  { return StateIdle }
func (Validating) Name() StateName            { return StateValidating }
func (Rejected) Name() StateName              { return StateRejected }
func (OptimisticallyApplied) Name() StateName { return StateOptimisticallyApplied }
func (Confirming) Name() StateName            { return StateConfirming }
func (Committed) Name() StateName             { return StateCommitted }
func (Reverting) Name() StateName             { return StateReverting }

func (Idle) isState()                  {}
func (Validating) isState()            {}
func (Rejected) isState()              {}
func (OptimisticallyApplied) isState() {}
func (Confirming) isState()            {}
func (Committed) isState()             {}
func (Reverting) isState()             {}

func (Idle) Begin(g Gesture, original Placement, proposed daterange.DateRange) Validating {
	return Validating{Gesture: g, Original: original, Proposed: proposed}
}

func (v Validating) Reject(reason error) Rejected {
	return Rejected{Attempt: v, Reason: reason}
}

func (v Validating) Apply(prompt Prompt) OptimisticallyApplied {
	return OptimisticallyApplied{Attempt: v, Prompt: prompt}
}

func (r Rejected) Reset() Idle { return Idle{} }

func (o OptimisticallyApplied) Accept() Confirming {
	return Confirming{Attempt: o.Attempt, Prompt: o.Prompt}
}

// Decline reverts without a write. reason is non-nil only when asking the
// user failed.
func (o OptimisticallyApplied) Decline(reason error) Reverting {
	return Reverting{Attempt: o.Attempt, Reason: reason}
}

func (c Confirming) Commit(result dto.StayRef) Committed {
	return Committed{Attempt: c.Attempt, Result: result}
}

func (c Confirming) Fail(reason error) Reverting {
	return Reverting{Attempt: c.Attempt, Reason: reason}
}

func (c Committed) Settle() Idle { return Idle{} }

func (r Reverting) Restore() Idle { return Idle{} }

// Placement is where a stay is drawn on the board.
type Placement struct {
	StayID    stay.StayID
	RoomID    room.RoomID
	Range     daterange.DateRange
	Status    stay.Status
	GuestName string
	Tentative bool
}
