package support

import (
	"context"

	"frontdesk/internal/app/uow"
)

// BeginUnit returns the unit of work carried by ctx or starts a new one.
// finish is nil when the caller does not own the unit; otherwise it must be
// called with the handler's error and commits on success.
func BeginUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(error) error, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Enter(ctx, unit)
	finish := func(handlerErr error) error {
		if handlerErr != nil || opts.ReadOnly {
			_ = unit.Rollback(execCtx)
			return handlerErr
		}
		return unit.Commit(execCtx)
	}
	return unit, execCtx, finish, nil
}

// BeginReadOnlyUnit is BeginUnit for queries; cleanup may be nil.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, execCtx, finish, err := BeginUnit(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil || finish == nil {
		return unit, execCtx, nil, err
	}
	return unit, execCtx, func() { _ = finish(nil) }, nil
}
