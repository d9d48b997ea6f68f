package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	roomsapp "frontdesk/internal/app/handlers/rooms"
	"frontdesk/internal/app/queries"
)

type RoomHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h RoomHandler) List(c *gin.Context) {
	result, err := queries.Ask[roomsapp.ListRoomsQuery, dto.RoomCollection](c.Request.Context(), h.Queries, roomsapp.ListRoomsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomHandler) Create(c *gin.Context) {
	var cmd roomsapp.CreateRoomCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid"})
		return
	}
	result, err := commands.Dispatch[roomsapp.CreateRoomCommand, *dto.Room](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RoomHandler) Snapshot(c *gin.Context) {
	q := roomsapp.RoomSnapshotQuery{RoomID: c.Param("id"), Today: c.Query("today")}
	result, err := queries.Ask[roomsapp.RoomSnapshotQuery, dto.RoomSnapshot](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomHandler) Board(c *gin.Context) {
	q := roomsapp.BoardQuery{From: c.Query("from"), To: c.Query("to")}
	result, err := queries.Ask[roomsapp.BoardQuery, dto.Board](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RoomHTTP = RoomHandler{}
