package types

import (
	"errors"
	"fmt"

	"github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// ConnectionError is returned when a connection to the store can't be
// established.
type ConnectionError struct {
	Driver string
	Err    error
}

// Error returns a string representation of the error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed connecting to %s database: %s", e.Driver, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StoreError wraps any failure returned by the store while running a
// statement.
type StoreError struct {
	Message string
	Err     error
}

// NewStoreError returns a new StoreError.
func NewStoreError(msg string, err error) *StoreError {
	return &StoreError{Message: msg, Err: err}
}

// Error returns a string representation of the error.
func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// DuplicateError represents an error when attempting to create a record that
// already exists.
type DuplicateError struct {
	ModelName string
	ID        string
	Err       error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with ID '%s' already exists", e.ModelName, e.ID)
}

// Unwrap returns the underlying driver error.
func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// Err converts an expected error returned by one of the supported drivers into
// a friendly DB error of one of the types defined above. Unknown errors are
// returned as is.
func Err(modelName, id string, err error) error {
	if isUniqueViolation(err) {
		return &DuplicateError{ModelName: modelName, ID: id, Err: err}
	}

	return err
}

func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}
