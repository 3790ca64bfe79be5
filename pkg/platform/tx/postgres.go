package tx

import (
	"context"
	"database/sql"
	"time"
)

// PostgresTx runs each operation inside BEGIN/COMMIT. Stores pick the
// transaction up from the context via From.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB, timeout time.Duration) *PostgresTx {
	return &PostgresTx{db: db, timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	ctx, cancel := WithTimeout(ctx, t.timeout)
	defer cancel()

	// Nested calls join the outer transaction.
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return AsPersistence(err, "begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return AsPersistence(err, "commit transaction")
	}
	return nil
}
