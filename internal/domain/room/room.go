package room

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrRoomNotFound  = errors.New("room: not found")
	ErrInvalidNumber = errors.New("room: number required")
)

type RoomID string

type Room struct {
	ID     RoomID
	Number string
	Label  string
	Floor  int
	Type   string
}

type Repository interface {
	ByID(ctx context.Context, id RoomID) (*Room, error)
	Save(ctx context.Context, room *Room) error
	List(ctx context.Context) ([]*Room, error)
}

func New(id RoomID, number, label string, floor int, roomType string) (*Room, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrInvalidNumber
	}
	if id == "" {
		id = RoomID(number)
	}
	return &Room{ID: id, Number: number, Label: strings.TrimSpace(label), Floor: floor, Type: strings.TrimSpace(roomType)}, nil
}

// DisplayLabel is the name shown in conflict messages.
func (r *Room) DisplayLabel() string {
	if r == nil {
		return ""
	}
	if r.Label != "" {
		return r.Label
	}
	return "Room " + r.Number
}
