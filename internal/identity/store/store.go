// Package store persists administrators and investors. The two classes live
// in separate tables (or maps) and share no uniqueness constraint.
package store

import (
	"context"
	"database/sql"

	"fundops/internal/identity/models"
	"fundops/pkg/platform/sentinel"
	txcontext "fundops/pkg/platform/tx"
)

// ErrNotFound is returned when an identity does not exist in its class.
var ErrNotFound = sentinel.ErrNotFound

// ErrEmailTaken is returned when the email is already used within a class.
var ErrEmailTaken = sentinel.ErrAlreadyUsed

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

func cloneIdentity(i *models.Identity) *models.Identity {
	c := *i
	c.Policies = i.Policies.Union(nil)
	return &c
}
