package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/sitetrack/internal/db"
)

// FaultyUoW runs transactions like the real unit of work but fails the
// FailOn-th write whose SQL contains Statement (every write when Statement
// is empty). Counting starts at 1 and restarts with each transaction; reads
// are never counted.
type FaultyUoW struct {
	DB        *sql.DB
	Statement string
	FailOn    int32
	Err       error
}

func (u *FaultyUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &faultyTx{DBTX: tx, uow: u})
	})
}

type faultyTx struct {
	db.DBTX
	uow   *FaultyUoW
	count atomic.Int32
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.uow.Statement == "" || strings.Contains(query, f.uow.Statement) {
		if f.count.Add(1) == f.uow.FailOn {
			return nil, f.uow.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
