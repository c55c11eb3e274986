package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens a migrated in-memory database pinned to one connection.
// It is closed on test cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, db.MemoryPath)
}

// NewFileTestDB opens a migrated WAL database under t.TempDir. Concurrency
// tests use it because the in-memory database allows a single connection.
func NewFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "sitetrack_test.db"))
}

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	conn, err := db.OpenDB(path)
	require.NoError(t, err, "opening test database %s", path)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// NewTestUoW returns the production unit of work over conn.
func NewTestUoW(conn *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(conn)
}
