package tx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dErrors "fundops/pkg/domain-errors"
)

// DefaultTimeout bounds a transaction whose caller set no deadline.
const DefaultTimeout = 5 * time.Second

// Runner provides the transactional boundary for one mutating operation.
// Implementations wrap a database transaction or, in-memory, a lock.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// AsPersistence converts a raw storage error into a coded one.
// Already-coded errors pass through unchanged; deadline and cancellation
// become CodeTimeout, everything else CodePersistence.
func AsPersistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+": store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, msg)
}

// WithTimeout applies timeout when ctx carries no deadline.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return nil
}
