package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"frontdesk/internal/app/bootstrap"
	"frontdesk/internal/app/middleware"
	appoutbox "frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
	"frontdesk/internal/infra/broker/kafka"
	"frontdesk/internal/infra/config"
	dbmongo "frontdesk/internal/infra/db/mongo"
	"frontdesk/internal/infra/inbox"
	"frontdesk/internal/infra/obs"
	infraoutbox "frontdesk/internal/infra/outbox"
	"frontdesk/internal/infra/storage/memory"
)

type runner func(ctx context.Context) error

// storage is the backend-specific half of the process: ports for the
// application plus the background loops that keep it consistent.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	runners     func(app *bootstrap.App) []runner
	closers     []func() error
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return openMemory(cfg, logger), nil
	case config.StorageMongo:
		return openMongo(ctx, cfg, logger, metrics)
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

func openMemory(cfg config.Config, logger *slog.Logger) *storage {
	store := memory.NewStore()
	box := memory.NewOutbox()
	idem := memory.NewIdempotencyStore()
	return &storage{
		factory:     memory.Factory{Store: store, Outbox: box},
		outbox:      box,
		idempotency: idem,
		checks:      map[string]obs.Check{},
		runners: func(app *bootstrap.App) []runner {
			box.Subscribe(app.EventSink("outbox"))
			return []runner{func(ctx context.Context) error {
				return pruneIdempotency(ctx, idem, cfg.IdempotencyTTL, logger)
			}}
		},
	}
}

func pruneIdempotency(ctx context.Context, store *memory.IdempotencyStore, ttl time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := store.Prune(now.Add(-ttl)); n > 0 {
				logger.DebugContext(ctx, "idempotency records pruned", "count", n)
			}
		}
	}
}

func openMongo(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*storage, error) {
	client, err := dbmongo.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &storage{closers: []func() error{func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Close(closeCtx)
	}}}

	box := infraoutbox.NewStore(client.DB)
	idem := dbmongo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
	groupID := consumerGroupID(cfg.KafkaGroupID)
	seen := inbox.NewStore(client.DB, groupID, 0)
	if err := errors.Join(
		client.EnsureIndexes(ctx),
		box.EnsureIndexes(ctx),
		idem.EnsureIndexes(ctx),
		seen.EnsureIndexes(ctx),
	); err != nil {
		s.close()
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	s.closers = append(s.closers, producer.Close)

	s.factory = dbmongo.NewFactory(client.DB)
	s.outbox = box
	s.idempotency = idem
	s.checks = map[string]obs.Check{"mongo": client.Ping}
	s.runners = func(app *bootstrap.App) []runner {
		worker := &infraoutbox.Worker{
			Store:    box,
			Producer: producer,
			Interval: cfg.OutboxPollInterval,
			Topic:    cfg.Topic,
			Backoff:  cfg.RetryBackoff,
			Logger:   logger,
			Metrics:  metrics,
		}
		return []runner{
			worker.Run,
			func(ctx context.Context) error {
				return consumeEvents(ctx, cfg, groupID, app, seen, logger)
			},
		}
	}
	return s, nil
}

// consumeEvents applies published events to this process's availability
// views; each process joins its own consumer group so all of them see
// every event.
func consumeEvents(ctx context.Context, cfg config.Config, groupID string, app *bootstrap.App, seen kafka.Inbox, logger *slog.Logger) error {
	handler := kafka.EventHandler{Apply: app.EventSink("kafka"), Inbox: seen, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, groupID, nil, handler, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer consumer.Close()
	topics := []string{
		cfg.Topic(infraoutbox.TopicFor("stay")),
		cfg.Topic(infraoutbox.TopicFor("group")),
	}
	logger.Info("event consumer starting", "group", groupID, "topics", topics)
	if err := consumer.Run(ctx, topics); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func consumerGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return base
	}
	return base + "-" + host
}
