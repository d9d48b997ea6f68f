package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	staysapp "frontdesk/internal/app/handlers/stays"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

const actionReschedule = "reschedule"

type StayHandler struct {
	Commands   commands.Bus
	Queries    queries.Bus
	Controller *mutation.Controller
	Logger     *slog.Logger
}

func (h StayHandler) Create(c *gin.Context) {
	var cmd staysapp.CreateStayCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid"})
		return
	}
	cmd.IdempotencyKeyV = c.GetHeader("Idempotency-Key")
	result, err := commands.Dispatch[staysapp.CreateStayCommand, *dto.StayRef](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h StayHandler) Get(c *gin.Context) {
	result, err := queries.Ask[staysapp.GetStayQuery, dto.StayRef](c.Request.Context(), h.Queries, staysapp.GetStayQuery{StayID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateStayRequest struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	RoomID   string `json:"room_id,omitempty"`
}

// Update is the persistence boundary's updateStay: validated against the
// stored calendar and applied without a confirmation step.
func (h StayHandler) Update(c *gin.Context) {
	var req updateStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid"})
		return
	}
	cmd := staysapp.UpdateStayCommand{
		StayID:          c.Param("id"),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		RoomID:          req.RoomID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[staysapp.UpdateStayCommand, *dto.StayRef](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Action runs a lifecycle transition, or a reschedule gesture when the
// action is "reschedule".
func (h StayHandler) Action(c *gin.Context) {
	action := c.Param("action")
	if action == actionReschedule {
		h.reschedule(c)
		return
	}
	cmd := staysapp.TransitionStayCommand{StayID: c.Param("id"), Action: action}
	result, err := commands.Dispatch[staysapp.TransitionStayCommand, *dto.StayRef](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rescheduleRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
	RoomID   string `json:"room_id,omitempty"`
	Confirm  bool   `json:"confirm"`
}

type placementDTO struct {
	StayID    string `json:"stay_id"`
	RoomID    string `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Status    string `json:"status"`
	GuestName string `json:"guest_name,omitempty"`
}

type rescheduleResponse struct {
	Outcome  string          `json:"outcome"`
	Original placementDTO    `json:"original"`
	Proposed string          `json:"proposed"`
	Prompt   mutation.Prompt `json:"prompt"`
	Stay     *dto.StayRef    `json:"stay,omitempty"`
	Trace    []string        `json:"trace"`
}

func (h StayHandler) reschedule(c *gin.Context) {
	if h.Controller == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduling unavailable", "code": "unavailable"})
		return
	}
	var req rescheduleRequest
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
	current, err := queries.Ask[staysapp.GetStayQuery, dto.StayRef](ctx, h.Queries, staysapp.GetStayQuery{StayID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	g := mutation.Gesture{
		Kind:     mutation.GestureResize,
		StayID:   stay.StayID(current.ID),
		FromRoom: room.RoomID(current.RoomID),
		CheckIn:  dr.CheckIn,
		CheckOut: dr.CheckOut,
	}
	if req.RoomID != "" && req.RoomID != current.RoomID {
		g.Kind = mutation.GestureMove
		g.RoomID = room.RoomID(req.RoomID)
	}
	out, err := h.Controller.Submit(mutation.WithDecision(ctx, req.Confirm), g)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, mapOutcome(out))
}

func mapOutcome(out mutation.Outcome) rescheduleResponse {
	resp := rescheduleResponse{
		Outcome: string(out.Kind),
		Original: placementDTO{
			StayID:    string(out.Original.StayID),
			RoomID:    string(out.Original.RoomID),
			CheckIn:   daterange.FormatDay(out.Original.Range.CheckIn),
			CheckOut:  daterange.FormatDay(out.Original.Range.CheckOut),
			Status:    string(out.Original.Status),
			GuestName: out.Original.GuestName,
		},
		Proposed: out.Proposed.String(),
		Prompt:   out.Prompt,
		Stay:     out.Stay,
		Trace:    make([]string, 0, len(out.Trace)),
	}
	for _, name := range out.Trace {
		resp.Trace = append(resp.Trace, string(name))
	}
	return resp
}

var _ StayHTTP = StayHandler{}
