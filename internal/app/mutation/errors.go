package mutation

import "errors"

var (
	ErrMutationInFlight = errors.New("mutation: another change to this stay is still in progress")
	ErrUnknownGesture   = errors.New("mutation: unknown gesture kind")
	ErrStayNotInRoom    = errors.New("mutation: stay not found in room snapshot")
)

// PersistenceError wraps a failed write. Its message is the boundary's
// message, unchanged.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return "persistence failed"
	}
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
