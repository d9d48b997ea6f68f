package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	appoutbox "frontdesk/internal/app/outbox"
	infraoutbox "frontdesk/internal/infra/outbox"
)

// Inbox remembers which event IDs a consumer already applied. Forget undoes
// Seen for an event whose apply failed.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// EventHandler decodes outbox envelopes and hands the records to Apply,
// skipping redeliveries the inbox has already seen.
type EventHandler struct {
	Apply  func(ctx context.Context, rec appoutbox.EventRecord) error
	Inbox  Inbox
	Logger *slog.Logger
}

func (h EventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	rec, err := infraoutbox.Decode(msg.Value)
	if err != nil {
		if errors.Is(err, infraoutbox.ErrInvalidEnvelope) {
			// a poison message would block the partition forever
			h.logger().WarnContext(ctx, "dropping malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			return nil
		}
		return err
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, rec.ID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().DebugContext(ctx, "duplicate event skipped", "id", rec.ID, "event", rec.Name)
			return nil
		}
	}
	if h.Apply == nil {
		return nil
	}
	if err := h.Apply(ctx, rec); err != nil {
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, rec.ID); ferr != nil {
				h.logger().WarnContext(ctx, "inbox forget failed", "id", rec.ID, "error", ferr)
			}
		}
		return err
	}
	return nil
}

func (h EventHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
