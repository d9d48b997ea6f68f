package uow

import (
	"context"
	"errors"

	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	domainstay "frontdesk/internal/domain/stay"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Rooms() domainroom.Repository
	Stays() domainstay.Repository
	Groups() domaingroup.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// Injector is implemented by units whose repositories need state carried
// in the context, such as a database session.
type Injector interface {
	InjectContext(ctx context.Context) context.Context
}

type ctxKey struct{}

// Enter attaches unit to ctx so nested handlers join it instead of
// beginning their own.
func Enter(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(Injector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok
}
