package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "frontdesk/internal/app/outbox"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeQueue struct {
	mu       sync.Mutex
	pending  []*EventDocument
	sent     []string
	failed   map[string]time.Time
	released int64
	cutoff   time.Time
}

func (q *fakeQueue) Claim(context.Context, string) (*EventDocument, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	doc := q.pending[0]
	q.pending = q.pending[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

func (q *fakeQueue) ReleaseStale(_ context.Context, cutoff time.Time) (int64, error) {
	q.cutoff = cutoff
	return q.released, nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	out  []published
	fail error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

type outcomeCounter map[string]int

func (c outcomeCounter) ObserveOutbox(event, result string) { c[event+"/"+result]++ }

func doc(id, name string, attempts int) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"stay_id":"s-1","room_id":"101"}`),
		OccurredAt: t0,
		Aggregate:  "s-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
		Attempts:   attempts,
	}
}

func TestDrainPublishesEnvelopes(t *testing.T) {
	q := &fakeQueue{pending: []*EventDocument{doc("e1", "stay.created", 0), doc("e2", "group.created", 0)}}
	p := &fakeProducer{}
	metrics := outcomeCounter{}
	w := &Worker{
		Store:    q,
		Producer: p,
		Topic:    func(s string) string { return "prod." + s },
		Metrics:  metrics,
		Now:      func() time.Time { return t0 },
	}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2"}, q.sent)
	assert.Equal(t, t0.Add(-time.Minute), q.cutoff)

	require.Len(t, p.out, 2)
	assert.Equal(t, "prod.stay.events.v1", p.out[0].topic)
	assert.Equal(t, "prod.group.events.v1", p.out[1].topic)
	assert.Equal(t, "s-1", p.out[0].key)
	assert.Equal(t, cloudEventsType, p.out[0].headers["content-type"])

	var env map[string]any
	require.NoError(t, json.Unmarshal(p.out[0].payload, &env))
	assert.Equal(t, "1.0", env["specversion"])
	assert.Equal(t, "e1", env["id"])
	assert.Equal(t, "stay.created.v1", env["type"])
	assert.Equal(t, "app://frontdesk", env["source"])
	assert.Equal(t, "00-abc-def-01", env["traceparent"])
	assert.Equal(t, 1, metrics["stay.created/sent"])
}

func TestDrainSchedulesRetryOnPublishFailure(t *testing.T) {
	q := &fakeQueue{pending: []*EventDocument{doc("e1", "stay.created", 0), doc("e2", "stay.created", 5)}}
	w := &Worker{
		Store:    q,
		Producer: &fakeProducer{fail: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 5 * time.Second},
		Now:      func() time.Time { return t0 },
	}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, q.sent)
	assert.Equal(t, t0.Add(time.Second), q.failed["e1"])
	// past the schedule the last step repeats
	assert.Equal(t, t0.Add(5*time.Second), q.failed["e2"])
}

func TestDrainRejectsNonJSONPayload(t *testing.T) {
	bad := doc("e1", "stay.created", 0)
	bad.Payload = []byte("not json")
	q := &fakeQueue{pending: []*EventDocument{bad}}
	p := &fakeProducer{}
	w := &Worker{Store: q, Producer: p, Now: func() time.Time { return t0 }}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.out)
	assert.Contains(t, q.failed, "e1")
}

func TestDrainStopsAtBatchSize(t *testing.T) {
	q := &fakeQueue{pending: []*EventDocument{doc("e1", "stay.created", 0), doc("e2", "stay.created", 0), doc("e3", "stay.created", 0)}}
	w := &Worker{Store: q, Producer: &fakeProducer{}, BatchSize: 2}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, q.pending, 1)
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	rec := appoutbox.EventRecord{
		ID:         "e9",
		Name:       "stay.rescheduled",
		Payload:    []byte(`{"stay_id":"x","from_room":"101","to_room":"102"}`),
		OccurredAt: t0,
		Aggregate:  "x",
	}
	payload, headers, err := Encode(rec, "app://test")
	require.NoError(t, err)
	assert.Equal(t, cloudEventsType, headers["content-type"])

	back, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Name, back.Name)
	assert.Equal(t, rec.Aggregate, back.Aggregate)
	assert.True(t, rec.OccurredAt.Equal(back.OccurredAt))
	assert.JSONEq(t, string(rec.Payload), string(back.Payload))

	rooms, err := appoutbox.AffectedRooms(back)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`{"specversion":"1.0"}`))
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
	_, err = Decode([]byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "stay.events.v1", TopicFor("stay.checked_in"))
	assert.Equal(t, "group.events.v1", TopicFor("group.created"))
	assert.Equal(t, "misc.events.v1", TopicFor("misc"))
}
