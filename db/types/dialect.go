package types

import (
	"fmt"
	"strconv"
)

// Dialect describes the SQL differences between supported stores that matter
// to the ledger queries.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	numbered bool
	idType   string
	nowExpr  string
}

var (
	// Postgres is used by both the pgx and lib/pq drivers.
	Postgres = Dialect{Name: "postgres", numbered: true, idType: "TEXT", nowExpr: "NOW()"}

	// MySQL can't index TEXT columns without a prefix length, so IDs use VARCHAR.
	MySQL = Dialect{Name: "mysql", idType: "VARCHAR(255)", nowExpr: "CURRENT_TIMESTAMP"}

	// SQLite has no NOW() function.
	SQLite = Dialect{Name: "sqlite", idType: "TEXT", nowExpr: "CURRENT_TIMESTAMP"}
)

// Placeholder returns the bind parameter marker for the n-th (1-based)
// positional parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// CreateLedgerTable returns the DDL statement that creates a ledger table with
// the given name if it doesn't exist.
func (d Dialect) CreateLedgerTable(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id %s PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMP NOT NULL DEFAULT %s
)`, table, d.idType, d.nowExpr)
}
