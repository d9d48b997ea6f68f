package stay

import (
	"errors"
	"fmt"
	"time"

	"frontdesk/internal/domain/shared/daterange"
)

var (
	ErrInvalidState     = errors.New("stay: invalid state transition")
	ErrStayNotFound     = errors.New("stay: not found")
	ErrUnknownStatus    = errors.New("stay: unknown status")
	ErrRoomRequired     = errors.New("stay: room id required")
	ErrGuestRequired    = errors.New("stay: guest name required")
	ErrInvalidGuests    = errors.New("stay: guests count must be positive")
	ErrConcurrentUpdate = errors.New("stay: concurrent update detected")
)

// PreconditionKind names why a proposed range was rejected before conflict checks.
type PreconditionKind string

const (
	PreconditionPastDate     PreconditionKind = "past_date"
	PreconditionLockedStatus PreconditionKind = "locked_status"
	PreconditionInvalidRange PreconditionKind = "invalid_range"
)

// PreconditionError is returned for malformed, past-dated, or locked mutations.
// Nothing was changed when it is returned.
type PreconditionError struct {
	Kind   PreconditionKind
	Status Status
	Day    time.Time
	Reason string
}

func (e *PreconditionError) Error() string {
	return "stay: " + e.Reason
}

func (e *PreconditionError) Is(target error) bool {
	t, ok := target.(*PreconditionError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// ErrPrecondition matches any *PreconditionError with errors.Is.
var ErrPrecondition = &PreconditionError{}

func pastDateError(checkIn, today time.Time) *PreconditionError {
	return &PreconditionError{
		Kind:   PreconditionPastDate,
		Day:    checkIn,
		Reason: fmt.Sprintf("check-in %s is before today (%s)", daterange.FormatDay(checkIn), daterange.FormatDay(today)),
	}
}

func lockedError(status Status) *PreconditionError {
	return &PreconditionError{
		Kind:   PreconditionLockedStatus,
		Status: status,
		Reason: "cannot change dates: " + status.LockReason(),
	}
}

func invalidRangeError(err error) *PreconditionError {
	return &PreconditionError{Kind: PreconditionInvalidRange, Reason: err.Error()}
}
