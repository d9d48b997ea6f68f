package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

type fakeUnit struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (u *fakeUnit) Rooms() domainroom.Repository   { return nil }
func (u *fakeUnit) Stays() domainstay.Repository   { return nil }
func (u *fakeUnit) Groups() domaingroup.Repository { return nil }
func (u *fakeUnit) Commit(context.Context) error {
	u.committed = true
	return u.commitErr
}
func (u *fakeUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units []*fakeUnit
	opts  []uow.TxOptions
	next  *fakeUnit
}

func (f *fakeFactory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := f.next
	if u == nil {
		u = &fakeUnit{}
	}
	f.next = nil
	f.units = append(f.units, u)
	f.opts = append(f.opts, opts)
	return u, nil
}

type pingCommand struct {
	Name     string `json:"name" validate:"required"`
	IdemKey  string `json:"-"`
	readOnly bool
}

func (c pingCommand) Key() string            { return "test.ping" }
func (c pingCommand) IdempotencyKey() string { return c.IdemKey }
func (c pingCommand) ResultPrototype() any   { return new(string) }
func (c pingCommand) ReadOnly() bool         { return c.readOnly }

type recordingBus struct {
	calls int
	err   error
	seen  context.Context
}

func (b *recordingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	b.seen = ctx
	if b.err != nil {
		return nil, b.err
	}
	out := "pong:" + cmd.(pingCommand).Name
	return &out, nil
}

type memIdempotency map[string]IdempotencyRecord

func (m memIdempotency) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := m[key]
	return rec, ok, nil
}

func (m memIdempotency) Save(_ context.Context, rec IdempotencyRecord) error {
	m[rec.Key] = rec
	return nil
}

type flakyOutbox struct{ flushes int }

func (o *flakyOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *flakyOutbox) Flush(context.Context) error {
	o.flushes++
	return errors.New("subscriber down")
}

func TestChainOrderIsOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	bus := ChainCommands(&recordingBus{}, mark("a"), mark("b"), mark("c"))
	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTransactionCommitsAndExposesUnit(t *testing.T) {
	factory := &fakeFactory{}
	inner := &recordingBus{}
	bus := ChainCommands(inner, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "x"})
	require.NoError(t, err)
	require.Len(t, factory.units, 1)
	assert.True(t, factory.units[0].committed)
	unit, ok := uow.FromContext(inner.seen)
	require.True(t, ok)
	assert.Same(t, factory.units[0], unit)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	factory := &fakeFactory{}
	boom := errors.New("boom")
	bus := ChainCommands(&recordingBus{err: boom}, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "x"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[0].committed)
}

func TestTransactionWrapsCommitFailure(t *testing.T) {
	factory := &fakeFactory{next: &fakeUnit{commitErr: domainstay.ErrConcurrentUpdate}}
	bus := ChainCommands(&recordingBus{}, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "x"})
	assert.ErrorIs(t, err, domainstay.ErrConcurrentUpdate)
	assert.Contains(t, err.Error(), "commit test.ping")
}

func TestTransactionHonoursReadOnlyHint(t *testing.T) {
	factory := &fakeFactory{}
	bus := ChainCommands(&recordingBus{}, Transaction(factory, nil))

	res, err := bus.Dispatch(context.Background(), pingCommand{Name: "x", readOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.True(t, factory.opts[0].ReadOnly)
	assert.True(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[0].committed)
}

func TestOutboxFlushFailureDoesNotFailCommand(t *testing.T) {
	var buf bytes.Buffer
	box := &flakyOutbox{}
	bus := ChainCommands(&recordingBus{}, OutboxFlush(box, slog.New(slog.NewTextHandler(&buf, nil))))

	res, err := bus.Dispatch(context.Background(), pingCommand{Name: "x"})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, box.flushes)
	assert.Contains(t, buf.String(), "outbox flush failed")
}

func TestOutboxFlushSkippedOnError(t *testing.T) {
	box := &flakyOutbox{}
	bus := ChainCommands(&recordingBus{err: errors.New("no")}, OutboxFlush(box, nil))
	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "x"})
	assert.Error(t, err)
	assert.Zero(t, box.flushes)
}

func TestIdempotencyReplaysSuccessOnly(t *testing.T) {
	store := memIdempotency{}
	inner := &recordingBus{err: errors.New("transient")}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	bus := ChainCommands(inner, Idempotency(store, IdempotencyOptions{TTL: time.Hour, Now: func() time.Time { return now }}))
	cmd := pingCommand{Name: "x", IdemKey: "k1"}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	assert.Empty(t, store)

	inner.err = nil
	first, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	second, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "pong:x", *second.(*string))
	assert.Equal(t, *first.(*string), *second.(*string))

	now = now.Add(2 * time.Hour)
	_, err = bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls, "expired records run the command again")
}

func TestValidationRejectsBeforeHandler(t *testing.T) {
	inner := &recordingBus{}
	bus := ChainCommands(inner, Validation(NewStructValidator()))
	_, err := bus.Dispatch(context.Background(), pingCommand{})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Contains(t, err.Error(), `name failed "required"`)
	assert.Zero(t, inner.calls)
}
