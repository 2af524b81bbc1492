package pg

import (
	"context"
	"fmt"

	"marketdata-service/internal/application"

	"github.com/jackc/pgx/v5"
)

type txKey struct{}

func txFromCtx(ctx context.Context) pgx.Tx {
	if v := ctx.Value(txKey{}); v != nil {
		if tx, ok := v.(pgx.Tx); ok {
			return tx
		}
	}
	return nil
}

var _ application.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork runs fn in one transaction. Repositories built on the same DB
// join it through the context. Nested calls reuse the outer transaction.
type UnitOfWork struct {
	DB *DB
}

func NewUnitOfWork(db *DB) *UnitOfWork { return &UnitOfWork{DB: db} }

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromCtx(ctx) != nil {
		return fn(ctx)
	}
	tx, err := u.DB.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
