package store

import (
	"context"
	"database/sql"
)

// querier is satisfied by both *sql.DB and *sql.Tx so lookups can run inside
// the registration transaction or on their own.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
