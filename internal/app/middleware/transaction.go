package middleware

import (
	"context"
	"fmt"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// ReadOnlyHint lets a command ask for a read-only unit of work.
type ReadOnlyHint interface {
	ReadOnly() bool
}

// DefaultTxOptions honours ReadOnlyHint and opens a writing unit otherwise.
func DefaultTxOptions(cmd commands.Command) uow.TxOptions {
	if hint, ok := cmd.(ReadOnlyHint); ok {
		return uow.TxOptions{ReadOnly: hint.ReadOnly()}
	}
	return uow.TxOptions{}
}

// Transaction runs each command inside a unit of work and commits on
// success. Handlers further down join the unit through the context.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if optsProvider == nil {
		optsProvider = DefaultTxOptions
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := optsProvider(cmd)
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, fmt.Errorf("begin %s: %w", cmd.Key(), err)
			}
			execCtx := uow.Enter(ctx, unit)
			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				_ = unit.Rollback(execCtx)
				return nil, err
			}
			if opts.ReadOnly {
				_ = unit.Rollback(execCtx)
				return res, nil
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, fmt.Errorf("commit %s: %w", cmd.Key(), err)
			}
			return res, nil
		})
	}
}
