package stay

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// ParseStatus accepts any casing and "-" or "_" separators.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Blocks reports whether a stay in this status occupies its nights.
func (s Status) Blocks() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

// Movable reports whether dates or room may still be changed.
func (s Status) Movable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// LockReason is the user-facing explanation for a non-movable status.
func (s Status) LockReason() string {
	switch s {
	case StatusCheckedIn:
		return "guest is already checked in"
	case StatusCheckedOut:
		return "stay is already checked out"
	case StatusCancelled:
		return "stay was cancelled"
	case StatusNoShow:
		return "stay was marked as no-show"
	case StatusPending, StatusConfirmed:
		return ""
	}
	return fmt.Sprintf("status %q cannot be moved", string(s))
}
