package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the claimable side of the outbox store.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type Observer interface {
	ObserveOutbox(event, result string)
}

// Worker drains the outbox into the broker, one claimed record at a time,
// retrying failed publishes on the Backoff schedule.
type Worker struct {
	Store    Queue
	Producer Producer
	Interval time.Duration
	// Topic decorates the aggregate topic, usually with a deployment prefix.
	Topic     func(string) string
	Source    string
	ID        string
	Backoff   []time.Duration
	BatchSize int
	// ClaimTimeout is how long a claim may stay unacknowledged before
	// the record is released to other workers.
	ClaimTimeout time.Duration
	Logger       *slog.Logger
	Metrics      Observer
	Now          func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().ErrorContext(ctx, "outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes due records until the queue is empty or a batch is done.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	if released, err := w.Store.ReleaseStale(ctx, w.now().Add(-w.claimTimeout())); err != nil {
		return 0, err
	} else if released > 0 {
		w.logger().WarnContext(ctx, "outbox claims released", "worker", w.ID, "count", released)
	}
	sent := 0
	for i := 0; i < w.batchSize(); i++ {
		ok, err := w.processOnce(ctx)
		if err != nil {
			return sent, err
		}
		if !ok {
			break
		}
		sent++
	}
	return sent, nil
}

// processOnce reports whether a record was claimed.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, err
	}
	payload, headers, err := Encode(doc.Record(), w.source())
	if err != nil {
		w.fail(ctx, doc, err)
		return true, nil
	}
	if err := w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers); err != nil {
		w.fail(ctx, doc, err)
		return true, nil
	}
	if err := w.Store.MarkSent(ctx, doc.ID); err != nil {
		return true, err
	}
	w.observe(doc.Name, "sent")
	return true, nil
}

func (w *Worker) fail(ctx context.Context, doc *EventDocument, cause error) {
	w.logger().WarnContext(ctx, "outbox publish failed",
		"event", doc.Name,
		"id", doc.ID,
		"attempts", doc.Attempts+1,
		"error", cause,
	)
	w.observe(doc.Name, "failed")
	if err := w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), cause.Error()); err != nil {
		w.logger().ErrorContext(ctx, "outbox mark failed", "id", doc.ID, "error", err)
	}
}

func (w *Worker) observe(event, result string) {
	if w.Metrics != nil {
		w.Metrics.ObserveOutbox(event, result)
	}
}

func (w *Worker) topicFor(name string) string {
	topic := TopicFor(name)
	if w.Topic != nil {
		topic = w.Topic(topic)
	}
	return topic
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) claimTimeout() time.Duration {
	if w.ClaimTimeout <= 0 {
		return time.Minute
	}
	return w.ClaimTimeout
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := w.now()
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://frontdesk"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
