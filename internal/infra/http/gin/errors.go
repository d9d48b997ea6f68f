package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/groupbooking"
	"frontdesk/internal/app/middleware"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/domain/conflict"
	"frontdesk/internal/domain/group"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

type errorBody struct {
	Error        string          `json:"error"`
	Code         string          `json:"code"`
	Precondition string          `json:"precondition,omitempty"`
	Conflicts    []conflictBody  `json:"conflicts,omitempty"`
	Duplicates   []string        `json:"duplicate_rooms,omitempty"`
	Succeeded    []dto.StayRef   `json:"succeeded,omitempty"`
	Failed       []failedRoomDTO `json:"failed,omitempty"`
}

type conflictBody struct {
	RoomID string   `json:"room_id"`
	Label  string   `json:"label"`
	Nights []string `json:"nights"`
	Stays  []string `json:"stay_ids"`
}

type failedRoomDTO struct {
	RoomID string `json:"room_id"`
	StayID string `json:"stay_id"`
	Error  string `json:"error"`
}

// statusFor maps application errors to HTTP status codes and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, groupbooking.ErrPartialGroupFailure):
		return http.StatusMultiStatus, "partial_group_failure"
	case errors.Is(err, conflict.ErrConflict):
		return http.StatusUnprocessableEntity, "conflict"
	case errors.Is(err, stay.ErrPrecondition):
		return http.StatusBadRequest, "precondition"
	case errors.Is(err, stay.ErrStayNotFound),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, group.ErrGroupNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, stay.ErrConcurrentUpdate),
		errors.Is(err, mutation.ErrMutationInFlight),
		errors.Is(err, stay.ErrInvalidState):
		return http.StatusConflict, "state_conflict"
	case errors.Is(err, middleware.ErrInvalidMessage),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, group.ErrDuplicateRoom),
		errors.Is(err, group.ErrNoRooms),
		errors.Is(err, stay.ErrRoomRequired),
		errors.Is(err, stay.ErrGuestRequired),
		errors.Is(err, stay.ErrInvalidGuests),
		errors.Is(err, stay.ErrUnknownStatus),
		errors.Is(err, room.ErrInvalidNumber),
		errors.Is(err, mutation.ErrUnknownGesture),
		errors.Is(err, mutation.ErrStayNotInRoom):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

func buildErrorBody(err error, code string) errorBody {
	body := errorBody{Error: err.Error(), Code: code}
	var pre *stay.PreconditionError
	if errors.As(err, &pre) {
		body.Precondition = string(pre.Kind)
	}
	var ce *conflict.ConflictError
	if errors.As(err, &ce) {
		for _, r := range ce.Rooms {
			cb := conflictBody{RoomID: string(r.RoomID), Label: r.Label}
			for _, n := range r.Nights {
				cb.Nights = append(cb.Nights, daterange.FormatDay(n))
			}
			for _, id := range r.Stays {
				cb.Stays = append(cb.Stays, string(id))
			}
			body.Conflicts = append(body.Conflicts, cb)
		}
	}
	var dup *group.DuplicateRoomError
	if errors.As(err, &dup) {
		for _, id := range dup.Rooms {
			body.Duplicates = append(body.Duplicates, string(id))
		}
	}
	var partial *groupbooking.PartialGroupFailure
	if errors.As(err, &partial) {
		body.Succeeded = partial.Succeeded
		for _, f := range partial.Failed {
			body.Failed = append(body.Failed, failedRoomDTO{RoomID: string(f.RoomID), StayID: string(f.StayID), Error: f.Err.Error()})
		}
	}
	return body
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if logger != nil {
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"status", status,
			"code", code,
			"error", err,
			"path", c.FullPath(),
		)
	}
	c.JSON(status, buildErrorBody(err, code))
}
