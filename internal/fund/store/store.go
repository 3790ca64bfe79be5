// Package store persists funds.
package store

import (
	"context"
	"database/sql"

	"fundops/pkg/platform/sentinel"
	txcontext "fundops/pkg/platform/tx"
)

// ErrNotFound is returned when a fund does not exist.
var ErrNotFound = sentinel.ErrNotFound

// ErrNameTaken is returned when another fund already uses the name.
var ErrNameTaken = sentinel.ErrAlreadyUsed

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func executor(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}
