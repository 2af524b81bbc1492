package application

import "context"

// UnitOfWork groups the snapshot writes of one refresh. Repositories pick the
// transaction up from the context passed to fn.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopUoW runs fn directly, for stores without transactions.
type NoopUoW struct{}

func (NoopUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
