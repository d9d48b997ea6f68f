package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"frontdesk/internal/app/board"
	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/gateway"
	"frontdesk/internal/app/groupbooking"
	groupshandlers "frontdesk/internal/app/handlers/groups"
	roomshandlers "frontdesk/internal/app/handlers/rooms"
	stayshandlers "frontdesk/internal/app/handlers/stays"
	"frontdesk/internal/app/middleware"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/app/outbox"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/app/uow"
	"frontdesk/internal/domain/availability"
)

// Deps are the storage-specific pieces the application is assembled from.
type Deps struct {
	UoWFactory     uow.UoWFactory
	Outbox         outbox.Outbox
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
	Encoder        outbox.EventEncoder
	Logger         *slog.Logger
	Recorder       mutation.Recorder
	Invalidations  InvalidationObserver
	// Confirmer answers the controller's prompts; DecisionConfirmer when nil.
	Confirmer        mutation.Confirmer
	Now              func() time.Time
	WriteTimeout     time.Duration
	GroupParallelism int
}

// InvalidationObserver counts rooms refreshed per event source.
type InvalidationObserver interface {
	ObserveInvalidation(source string, rooms int)
}

// App is the assembled application: buses behind middleware, the shared
// availability cache, the board projection and the scheduling core.
type App struct {
	Commands    commands.Bus
	Queries     queries.Bus
	Gateway     *gateway.Gateway
	Cache       *availability.Cache
	Board       *board.Projection
	Controller  *mutation.Controller
	Coordinator *groupbooking.Coordinator
	Logger      *slog.Logger

	invalidations InvalidationObserver
}

var errMissingDeps = errors.New("bootstrap: uow factory, outbox and idempotency store are required")

func Build(deps Deps) (*App, error) {
	if deps.UoWFactory == nil || deps.Outbox == nil || deps.Idempotency == nil {
		return nil, errMissingDeps
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	encoder := deps.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	cache := availability.NewCache()

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler[stayshandlers.UpdateStayCommand, *dto.StayRef](cmdBus, &stayshandlers.UpdateStayHandler{
		UoWFactory: deps.UoWFactory, Outbox: deps.Outbox, Encoder: encoder, Now: now, Logger: logger,
	})
	commands.RegisterHandler[stayshandlers.CreateStayCommand, *dto.StayRef](cmdBus, &stayshandlers.CreateStayHandler{
		UoWFactory: deps.UoWFactory, Cache: cache, Outbox: deps.Outbox, Encoder: encoder, Now: now, Logger: logger,
	})
	commands.RegisterHandler[stayshandlers.TransitionStayCommand, *dto.StayRef](cmdBus, &stayshandlers.TransitionStayHandler{
		UoWFactory: deps.UoWFactory, Outbox: deps.Outbox, Encoder: encoder, Now: now, Logger: logger,
	})
	commands.RegisterHandler[groupshandlers.CreateGroupCommand, *dto.Group](cmdBus, &groupshandlers.CreateGroupHandler{
		UoWFactory: deps.UoWFactory, Cache: cache, Outbox: deps.Outbox, Encoder: encoder, Now: now, Logger: logger,
	})
	commands.RegisterHandler[roomshandlers.CreateRoomCommand, *dto.Room](cmdBus, &roomshandlers.CreateRoomHandler{
		UoWFactory: deps.UoWFactory, Logger: logger,
	})

	validator := middleware.NewStructValidator()
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(deps.Idempotency, middleware.IdempotencyOptions{TTL: deps.IdempotencyTTL, Now: now}),
		middleware.OutboxFlush(deps.Outbox, logger),
		middleware.Transaction(deps.UoWFactory, nil),
	)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[stayshandlers.GetStayQuery, dto.StayRef](queryBus, &stayshandlers.GetStayHandler{UoWFactory: deps.UoWFactory})
	queries.RegisterHandler[groupshandlers.GetGroupQuery, dto.Group](queryBus, &groupshandlers.GetGroupHandler{UoWFactory: deps.UoWFactory})
	queries.RegisterHandler[roomshandlers.ListRoomsQuery, dto.RoomCollection](queryBus, &roomshandlers.ListRoomsHandler{UoWFactory: deps.UoWFactory})
	queries.RegisterHandler[roomshandlers.RoomSnapshotQuery, dto.RoomSnapshot](queryBus, &roomshandlers.RoomSnapshotHandler{UoWFactory: deps.UoWFactory, Now: now})
	queries.RegisterHandler[roomshandlers.BoardQuery, dto.Board](queryBus, &roomshandlers.BoardHandler{UoWFactory: deps.UoWFactory, Cache: cache, Now: now})
	qs := middleware.ChainQueries(queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	gw := gateway.New(cmds, qs)
	projection := board.NewProjection(gw, now, logger)
	confirmer := deps.Confirmer
	if confirmer == nil {
		confirmer = mutation.DecisionConfirmer{}
	}
	controller := mutation.NewController(mutation.Config{
		Source:       gw,
		Writer:       gw,
		Confirmer:    confirmer,
		Board:        projection,
		Invalidator:  projection,
		Cache:        cache,
		Recorder:     deps.Recorder,
		Logger:       logger,
		Today:        now,
		WriteTimeout: deps.WriteTimeout,
	})
	coordinator := groupbooking.NewCoordinator(groupbooking.Config{
		Source:      gw,
		Groups:      gw,
		Stays:       gw,
		Invalidator: projection,
		Cache:       cache,
		Logger:      logger,
		Today:       now,
		Parallelism: deps.GroupParallelism,
	})

	return &App{
		Commands:    cmds,
		Queries:     qs,
		Gateway:     gw,
		Cache:       cache,
		Board:       projection,
		Controller:  controller,
		Coordinator: coordinator,
		Logger:      logger,

		invalidations: deps.Invalidations,
	}, nil
}

// ApplyEvent refreshes availability views for the rooms an event touched:
// cached indexes are evicted and the board reloads those rows.
func (a *App) ApplyEvent(ctx context.Context, rec outbox.EventRecord) error {
	_, err := a.applyEvent(ctx, rec)
	return err
}

// EventSink returns an ApplyEvent variant that reports refreshed rooms
// under source. Outbox subscribers and broker consumers use it.
func (a *App) EventSink(source string) func(context.Context, outbox.EventRecord) error {
	return func(ctx context.Context, rec outbox.EventRecord) error {
		n, err := a.applyEvent(ctx, rec)
		if err != nil {
			return err
		}
		if n > 0 && a.invalidations != nil {
			a.invalidations.ObserveInvalidation(source, n)
		}
		return nil
	}
}

func (a *App) applyEvent(ctx context.Context, rec outbox.EventRecord) (int, error) {
	rooms, err := outbox.AffectedRooms(rec)
	if err != nil {
		return 0, err
	}
	if len(rooms) == 0 {
		return 0, nil
	}
	for _, id := range rooms {
		a.Cache.Evict(id)
	}
	a.Board.Invalidate(ctx, rooms...)
	a.Logger.DebugContext(ctx, "availability invalidated", "event", rec.Name, "rooms", rooms)
	return len(rooms), nil
}
