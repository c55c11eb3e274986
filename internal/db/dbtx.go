package db

import (
	"context"
	"database/sql"
)

// DBTX is the query surface repositories are built on. Both the pooled
// *sql.DB and a *sql.Tx handed out by UnitOfWork satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
