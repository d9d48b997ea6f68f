package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/groupbooking"
	groupsapp "frontdesk/internal/app/handlers/groups"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

// GroupRecorder counts group operations by outcome.
type GroupRecorder interface {
	ObserveGroup(operation, outcome string)
}

type GroupHandler struct {
	Queries     queries.Bus
	Coordinator *groupbooking.Coordinator
	Recorder    GroupRecorder
	Logger      *slog.Logger
}

type groupRoomRequest struct {
	RoomID    string `json:"room_id"`
	GuestName string `json:"guest_name"`
	Guests    int    `json:"guests,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type createGroupRequest struct {
	CheckIn     string             `json:"check_in" binding:"required"`
	CheckOut    string             `json:"check_out" binding:"required"`
	Rooms       []groupRoomRequest `json:"rooms"`
	Notes       string             `json:"notes,omitempty"`
	PromoCode   string             `json:"promo_code,omitempty"`
	VoucherCode string             `json:"voucher_code,omitempty"`
}

type groupResultResponse struct {
	GroupCode string        `json:"group_code"`
	Stays     []dto.StayRef `json:"stays"`
}

func (h GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid"})
		return
	}
	dr, err := parseWindow(req.CheckIn, req.CheckOut)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	booking := groupbooking.GroupBookingRequest{
		CheckIn:        dr.CheckIn,
		CheckOut:       dr.CheckOut,
		Notes:          req.Notes,
		PromoCode:      req.PromoCode,
		VoucherCode:    req.VoucherCode,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		Rooms:          make([]groupbooking.RoomRequest, 0, len(req.Rooms)),
	}
	for _, r := range req.Rooms {
		booking.Rooms = append(booking.Rooms, groupbooking.RoomRequest{
			RoomID:    room.RoomID(r.RoomID),
			GuestName: r.GuestName,
			Guests:    r.Guests,
			Notes:     r.Notes,
		})
	}
	result, err := h.Coordinator.SubmitGroup(c.Request.Context(), booking)
	h.observe("create", err)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, groupResultResponse{GroupCode: result.GroupCode, Stays: result.Stays})
}

func (h GroupHandler) Get(c *gin.Context) {
	result, err := queries.Ask[groupsapp.GetGroupQuery, dto.Group](c.Request.Context(), h.Queries, groupsapp.GetGroupQuery{Code: c.Param("code")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateGroupRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
}

// Update moves every active stay of the group to a new window. Mixed results
// are answered with 207 and the per-room breakdown.
func (h GroupHandler) Update(c *gin.Context) {
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid"})
		return
	}
	dr, err := parseWindow(req.CheckIn, req.CheckOut)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	ctx := c.Request.Context()
	current, err := queries.Ask[groupsapp.GetGroupQuery, dto.Group](ctx, h.Queries, groupsapp.GetGroupQuery{Code: c.Param("code")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	update := groupbooking.GroupUpdateRequest{GroupCode: current.Code, CheckIn: dr.CheckIn, CheckOut: dr.CheckOut}
	for _, s := range current.Stays {
		status, err := stay.ParseStatus(s.Status)
		if err != nil || !status.Blocks() {
			continue
		}
		update.Stays = append(update.Stays, groupbooking.GroupStay{StayID: stay.StayID(s.ID), RoomID: room.RoomID(s.RoomID)})
	}
	result, err := h.Coordinator.UpdateGroup(ctx, update)
	h.observe("update", err)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, groupResultResponse{GroupCode: result.GroupCode, Stays: result.Stays})
}

func (h GroupHandler) observe(op string, err error) {
	if h.Recorder == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, groupbooking.ErrPartialGroupFailure):
		outcome = "partial"
	case err != nil:
		outcome = "failed"
	}
	h.Recorder.ObserveGroup(op, outcome)
}

// parseWindow parses both days without requiring a valid range; range
// problems are reported by the scheduling core as preconditions.
func parseWindow(in, out string) (daterange.DateRange, error) {
	checkIn, err := daterange.ParseDay(in)
	if err != nil {
		return daterange.DateRange{}, err
	}
	checkOut, err := daterange.ParseDay(out)
	if err != nil {
		return daterange.DateRange{}, err
	}
	return daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

var _ GroupHTTP = GroupHandler{}
