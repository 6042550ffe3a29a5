package types

import (
	"context"
	"time"
)

// Executor exposes only methods for running SQL statements against the store.
type Executor interface {
	// Execute runs a statement that isn't expected to return rows. Multiple
	// statements separated by semicolons are allowed if params is empty.
	Execute(ctx context.Context, sql string, params ...Param) error
	// Query runs a statement and returns all resulting rows. Parameters are
	// bound positionally in the order given.
	Query(ctx context.Context, sql string, params ...Param) ([]Row, error)
	// Dialect returns the SQL dialect of the underlying store.
	Dialect() Dialect
}

// Param is a positional query parameter.
type Param interface {
	Value() any
}

type (
	// Int32 is a 32-bit integer parameter.
	Int32 int32
	// Int64 is a 64-bit integer parameter.
	Int64 int64
	// Float64 is a double precision floating point parameter.
	Float64 float64
	// Bool is a boolean parameter.
	Bool bool
	// Text is a string parameter.
	Text string
)

// Value implements the Param interface.
func (p Int32) Value() any { return int32(p) }

// Value implements the Param interface.
func (p Int64) Value() any { return int64(p) }

// Value implements the Param interface.
func (p Float64) Value() any { return float64(p) }

// Value implements the Param interface.
func (p Bool) Value() any { return bool(p) }

// Value implements the Param interface.
func (p Text) Value() any { return string(p) }

// Args converts params into arguments accepted by database/sql.
func Args(params []Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Value()
	}
	return args
}

// Row is a single result row, keyed by column name.
type Row map[string]any

// String returns the value of column col as a string. The second return value
// is false if the column is missing, NULL, or not a textual value.
func (r Row) String(col string) (string, bool) {
	switch v := r[col].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// Time returns the value of column col as a time.Time. Textual timestamps are
// parsed using the formats commonly returned by SQL drivers.
func (r Row) Time(col string) (time.Time, bool) {
	switch v := r[col].(type) {
	case time.Time:
		return v, true
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	default:
		return time.Time{}, false
	}
}

var timeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, bool) {
	for _, f := range timeFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
