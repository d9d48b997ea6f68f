package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"frontdesk/internal/app/bootstrap"
	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	roomshandlers "frontdesk/internal/app/handlers/rooms"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/domain/room"
)

//go:embed rooms.json
var defaultRooms []byte

// loadRoomFixtures registers the rooms listed in path, or the built-in
// set when path is empty. Existing rooms are overwritten.
func loadRoomFixtures(ctx context.Context, app *bootstrap.App, path string, logger *slog.Logger) error {
	data := defaultRooms
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Info("room fixtures file not found, skipping", "path", path)
				return nil
			}
			return fmt.Errorf("read fixtures: %w", err)
		}
		data = raw
	}
	if len(data) == 0 {
		return nil
	}

	var fixtures []roomshandlers.CreateRoomCommand
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	var errs []error
	for _, fx := range fixtures {
		if _, err := commands.Dispatch[roomshandlers.CreateRoomCommand, *dto.Room](ctx, app.Commands, fx); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", fx.Number, err))
		}
	}
	logger.Info("room fixtures loaded", "count", len(fixtures)-len(errs))
	return errors.Join(errs...)
}

// trackAllRooms puts every stored room on the board.
func trackAllRooms(ctx context.Context, app *bootstrap.App) error {
	rooms, err := queries.Ask[roomshandlers.ListRoomsQuery, dto.RoomCollection](ctx, app.Queries, roomshandlers.ListRoomsQuery{})
	if err != nil {
		return err
	}
	ids := make([]room.RoomID, 0, len(rooms.Items))
	for _, r := range rooms.Items {
		ids = append(ids, room.RoomID(r.ID))
	}
	return app.Board.Track(ctx, ids...)
}
