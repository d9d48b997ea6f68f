package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"frontdesk/internal/app/bootstrap"
	"frontdesk/internal/infra/config"
	ginserver "frontdesk/internal/infra/http/gin"
	"frontdesk/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("frontdesk stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("frontdesk stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		metrics = obs.NewMetrics()
	}

	backend, err := openStorage(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer backend.close()

	app, err := bootstrap.Build(bootstrap.Deps{
		UoWFactory:       backend.factory,
		Outbox:           backend.outbox,
		Idempotency:      backend.idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logger:           logger,
		Recorder:         metrics,
		Invalidations:    metrics,
		WriteTimeout:     cfg.WriteTimeout,
		GroupParallelism: cfg.GroupParallelism,
	})
	if err != nil {
		return err
	}

	if err := loadRoomFixtures(ctx, app, cfg.RoomsFixtures, logger); err != nil {
		logger.Warn("room fixtures load failed", "error", err, "path", cfg.RoomsFixtures)
	}
	if err := trackAllRooms(ctx, app); err != nil {
		return err
	}

	handlers := ginserver.Handlers{
		Rooms:  ginserver.RoomHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Stays:  ginserver.StayHandler{Commands: app.Commands, Queries: app.Queries, Controller: app.Controller, Logger: logger},
		Groups: ginserver.GroupHandler{Queries: app.Queries, Coordinator: app.Coordinator, Recorder: metrics, Logger: logger},
	}
	if metrics != nil {
		handlers.Metrics = metrics.Handler()
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{
		Checks:  backend.checks,
		Timeout: 2 * time.Second,
	}, handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return rerenderDaily(gctx, app, logger)
	})
	for _, start := range backend.runners(app) {
		start := start
		g.Go(func() error { return start(gctx) })
	}
	return g.Wait()
}

// rerenderDaily rebuilds the board hourly so rows follow the date rollover.
func rerenderDaily(ctx context.Context, app *bootstrap.App, logger *slog.Logger) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := app.Board.Rerender(ctx); err != nil {
				logger.WarnContext(ctx, "board rerender failed", "error", err)
			}
		}
	}
}
