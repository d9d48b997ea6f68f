package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "frontdesk/internal/app/outbox"
	infraoutbox "frontdesk/internal/infra/outbox"
)

type memInbox map[string]bool

func (m memInbox) Seen(_ context.Context, id string) (bool, error) {
	if m[id] {
		return true, nil
	}
	m[id] = true
	return false, nil
}

func (m memInbox) Forget(_ context.Context, id string) error {
	delete(m, id)
	return nil
}

func envelope(t *testing.T, id string) []byte {
	t.Helper()
	payload, _, err := infraoutbox.Encode(appoutbox.EventRecord{
		ID:         id,
		Name:       "stay.created",
		Payload:    []byte(`{"stay_id":"s-1","room_id":"101"}`),
		OccurredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Aggregate:  "s-1",
	}, "app://test")
	require.NoError(t, err)
	return payload
}

func TestEventHandlerAppliesOncePerEvent(t *testing.T) {
	var applied []appoutbox.EventRecord
	h := EventHandler{
		Inbox: memInbox{},
		Apply: func(_ context.Context, rec appoutbox.EventRecord) error {
			applied = append(applied, rec)
			return nil
		},
	}
	msg := &sarama.ConsumerMessage{Topic: "stay.events.v1", Value: envelope(t, "e1")}

	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, applied, 1)
	assert.Equal(t, "stay.created", applied[0].Name)
	assert.Equal(t, "e1", applied[0].ID)
}

func TestEventHandlerDropsMalformedMessages(t *testing.T) {
	called := false
	h := EventHandler{Apply: func(context.Context, appoutbox.EventRecord) error { called = true; return nil }}
	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("garbage")})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestEventHandlerReturnsApplyErrors(t *testing.T) {
	boom := errors.New("boom")
	h := EventHandler{Apply: func(context.Context, appoutbox.EventRecord) error { return boom }}
	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: envelope(t, "e2")})
	assert.ErrorIs(t, err, boom)
}

func TestProducerPublishesWithSortedHeaders(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "stay.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("headers not sorted")
		}
		return nil
	})

	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "stay.events.v1", "s-1", []byte(`{}`), map[string]string{
		"traceparent":  "00-abc",
		"content-type": "application/cloudevents+json",
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestEventHandlerRetriesAfterFailedApply(t *testing.T) {
	fail := true
	applied := 0
	h := EventHandler{
		Inbox: memInbox{},
		Apply: func(context.Context, appoutbox.EventRecord) error {
			if fail {
				return errors.New("board unavailable")
			}
			applied++
			return nil
		},
	}
	msg := &sarama.ConsumerMessage{Value: envelope(t, "e3")}

	require.Error(t, h.Handle(context.Background(), msg))
	fail = false
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, 1, applied)
}

type claimSession struct {
	sarama.ConsumerGroupSession
	marked []int64
}

func (s *claimSession) Context() context.Context { return context.Background() }

func (s *claimSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type claim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c claim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type offsetHandler struct {
	failAt  int64
	handled []int64
}

func (h *offsetHandler) Handle(_ context.Context, msg *sarama.ConsumerMessage) error {
	h.handled = append(h.handled, msg.Offset)
	if msg.Offset == h.failAt {
		return errors.New("apply failed")
	}
	return nil
}

func TestConsumeClaimStopsAtFailedMessage(t *testing.T) {
	messages := make(chan *sarama.ConsumerMessage, 3)
	for offset := int64(10); offset < 13; offset++ {
		messages <- &sarama.ConsumerMessage{Topic: "stay.events.v1", Partition: 0, Offset: offset}
	}
	close(messages)

	sess := &claimSession{}
	handler := &offsetHandler{failAt: 11}
	err := consumerGroupHandler{handler: handler, logger: slog.Default()}.ConsumeClaim(sess, claim{messages: messages})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 11")
	assert.Equal(t, []int64{10}, sess.marked)
	assert.Equal(t, []int64{10, 11}, handler.handled)
}

func TestConsumeClaimMarksEveryHandledMessage(t *testing.T) {
	messages := make(chan *sarama.ConsumerMessage, 2)
	messages <- &sarama.ConsumerMessage{Offset: 1}
	messages <- &sarama.ConsumerMessage{Offset: 2}
	close(messages)

	sess := &claimSession{}
	err := consumerGroupHandler{handler: &offsetHandler{failAt: -1}, logger: slog.Default()}.ConsumeClaim(sess, claim{messages: messages})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, sess.marked)
}
