package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

type contextInjector interface {
	InjectContext(context.Context) context.Context
}

// Bind returns a context carrying unit, letting drivers add their own session
// state first.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(contextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// Scope is a unit taken from the context or begun on demand. Only units begun
// by Acquire are committed or rolled back through the scope.
type Scope struct {
	Unit      UnitOfWork
	Ctx       context.Context
	managed   bool
	committed bool
}

// Acquire reuses the unit already bound to ctx or begins a new one. A room in
// opts is locked even when the unit is reused.
func Acquire(ctx context.Context, factory UoWFactory, opts TxOptions) (*Scope, error) {
	if unit, ok := FromContext(ctx); ok {
		if opts.Room != "" {
			if err := unit.LockRoom(ctx, opts.Room); err != nil {
				return nil, err
			}
		}
		return &Scope{Unit: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Scope{Unit: unit, Ctx: Bind(ctx, unit), managed: true}, nil
}

// Commit commits a managed unit. Borrowed units are committed by their owner.
func (s *Scope) Commit() error {
	if !s.managed || s.committed {
		return nil
	}
	if err := s.Unit.Commit(s.Ctx); err != nil {
		return err
	}
	s.committed = true
	return nil
}

// Release rolls back a managed unit that was not committed.
func (s *Scope) Release() {
	if s.managed && !s.committed {
		_ = s.Unit.Rollback(s.Ctx)
	}
}
