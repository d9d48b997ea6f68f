package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"frontdesk/internal/app/groupbooking"
	"frontdesk/internal/domain/conflict"
	"frontdesk/internal/domain/group"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

type errorPayload struct {
	Error        string `json:"error"`
	Code         string `json:"code"`
	Precondition string `json:"precondition"`
	Conflicts    []struct {
		RoomID string   `json:"room_id"`
		Label  string   `json:"label"`
		Nights []string `json:"nights"`
		Stays  []string `json:"stay_ids"`
	} `json:"conflicts"`
	Duplicates []string `json:"duplicate_rooms"`
}

// APIError is a non-2xx answer from the reservation API. Error returns the
// server's message unchanged; Unwrap yields the matching domain error so
// callers can classify it with errors.Is and errors.As.
type APIError struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("reservation api: status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.cause }

func decodeError(status int, raw []byte) error {
	var p errorPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Error == "" {
		return &APIError{Status: status, Message: fmt.Sprintf("reservation api: status %d", status)}
	}
	return &APIError{Status: status, Code: p.Code, Message: p.Error, cause: causeOf(status, p)}
}

func causeOf(status int, p errorPayload) error {
	switch p.Code {
	case "conflict":
		ce := &conflict.ConflictError{}
		for _, c := range p.Conflicts {
			rc := conflict.RoomConflict{RoomID: room.RoomID(c.RoomID), Label: c.Label}
			for _, n := range c.Nights {
				if day, err := daterange.ParseDay(n); err == nil {
					rc.Nights = append(rc.Nights, day)
				}
			}
			for _, id := range c.Stays {
				rc.Stays = append(rc.Stays, stay.StayID(id))
			}
			ce.Rooms = append(ce.Rooms, rc)
		}
		return ce
	case "precondition":
		return &stay.PreconditionError{Kind: stay.PreconditionKind(p.Precondition), Reason: p.Error}
	case "partial_group_failure":
		return groupbooking.ErrPartialGroupFailure
	case "timeout":
		return context.DeadlineExceeded
	}
	if len(p.Duplicates) > 0 {
		dup := &group.DuplicateRoomError{}
		for _, id := range p.Duplicates {
			dup.Rooms = append(dup.Rooms, room.RoomID(id))
		}
		return dup
	}
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return stay.ErrConcurrentUpdate
	}
	return nil
}

// ErrNotFound is the cause of every 404 answer.
var ErrNotFound = errors.New("apiclient: resource not found")
