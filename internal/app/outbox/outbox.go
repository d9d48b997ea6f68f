package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

type headersKey struct{}

// WithHeaders attaches metadata, such as the originating request id, that
// RecordDomainEvents copies onto every record added under ctx. Later calls
// override earlier values for the same name.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	merged := HeadersFromContext(ctx)
	for k, v := range headers {
		if v != "" {
			merged[k] = v
		}
	}
	return context.WithValue(ctx, headersKey{}, merged)
}

// HeadersFromContext returns a copy of the headers attached to ctx.
func HeadersFromContext(ctx context.Context) map[string]string {
	out := map[string]string{}
	if h, ok := ctx.Value(headersKey{}).(map[string]string); ok {
		for k, v := range h {
			out[k] = v
		}
	}
	return out
}

// RecordDomainEvents encodes evs and adds them to the outbox in order.
// Headers set by the encoder win over those carried by ctx.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	ctxHeaders := HeadersFromContext(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if rec.Headers == nil {
			rec.Headers = map[string]string{}
		}
		for k, v := range ctxHeaders {
			if _, set := rec.Headers[k]; !set {
				rec.Headers[k] = v
			}
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
