// Package dbtest provides helpers for tests that need a real database.
package dbtest

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"testing"

	"go.hackfix.me/dbctl/db"
)

// MemoryDSN returns the DSN of a new uniquely named in-memory SQLite database.
func MemoryDSN(t *testing.T) string {
	t.Helper()

	// A unique name per test, to avoid clashing of in-memory SQLite DBs.
	rndName := make([]byte, 12)
	if _, err := rand.Read(rndName); err != nil {
		t.Fatalf("failed generating database name: %v", err)
	}

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	return fmt.Sprintf("file:dbctl-%x?mode=memory&cache=shared", rndName)
}

// NewPool returns a Pool connected to a new in-memory SQLite database. The
// pool is closed when the test finishes.
func NewPool(t *testing.T) *db.Pool {
	t.Helper()

	pool, err := db.NewPool(db.Config{
		Driver:         db.DriverSQLite,
		Name:           MemoryDSN(t),
		MaxConnections: 4,
	}, db.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("failed creating pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	return pool
}
