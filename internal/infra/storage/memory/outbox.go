package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
)

// Subscriber receives flushed event records in commit order.
type Subscriber func(ctx context.Context, rec appoutbox.EventRecord) error

// Outbox keeps event records in memory. Records added inside a memory unit
// of work become visible only when that unit commits; Flush hands them to
// the subscribers.
type Outbox struct {
	mu          sync.Mutex
	ready       []appoutbox.EventRecord
	subscribers []Subscriber
}

func NewOutbox(subscribers ...Subscriber) *Outbox {
	return &Outbox{subscribers: subscribers}
}

func (o *Outbox) Subscribe(sub Subscriber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, sub)
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok {
			mu.stage(record)
			return nil
		}
	}
	o.enqueue([]appoutbox.EventRecord{record})
	return nil
}

func (o *Outbox) enqueue(records []appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = append(o.ready, records...)
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.ready
	o.ready = nil
	subs := append([]Subscriber(nil), o.subscribers...)
	o.mu.Unlock()

	var errs []error
	for _, rec := range records {
		for _, sub := range subs {
			if err := sub(ctx, rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many committed records await Flush.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ready)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
