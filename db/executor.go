package db

import (
	"context"
	"fmt"

	"go.hackfix.me/dbctl/db/types"
)

// Executor runs SQL statements using the handle of a Pool.
type Executor struct {
	pool *Pool
}

var _ types.Executor = (*Executor)(nil)

// NewExecutor returns a new Executor backed by pool.
func NewExecutor(pool *Pool) *Executor {
	return &Executor{pool: pool}
}

// Execute runs a statement that doesn't return rows.
func (e *Executor) Execute(ctx context.Context, sql string, params ...types.Param) error {
	d, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	if _, err = d.ExecContext(ctx, sql, types.Args(params)...); err != nil {
		return types.NewStoreError("failed executing statement", err)
	}

	return nil
}

// Query runs a statement and returns all of its rows. Column values are
// returned as produced by the driver, except that byte slices are converted to
// strings.
func (e *Executor) Query(ctx context.Context, sql string, params ...types.Param) ([]types.Row, error) {
	d, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := d.QueryContext(ctx, sql, types.Args(params)...)
	if err != nil {
		return nil, types.NewStoreError("failed running query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, types.NewStoreError("failed reading columns", err)
	}

	var result []types.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, types.NewStoreError("failed scanning row", err)
		}

		row := make(types.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, types.NewStoreError(fmt.Sprintf("failed iterating over %d rows", len(result)), err)
	}

	return result, nil
}

// Dialect returns the SQL dialect of the pool's driver.
func (e *Executor) Dialect() types.Dialect {
	return e.pool.Dialect()
}
