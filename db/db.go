package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"go.hackfix.me/dbctl/db/types"
)

// Pool owns the database handle shared by all components of a single
// invocation. The handle is created on the first call to Acquire, and reused
// by every later call.
type Pool struct {
	cfg     Config
	dialect types.Dialect
	logger  *slog.Logger

	mx sync.Mutex
	db *sql.DB
}

// NewPool returns a new Pool for the given configuration. It doesn't connect to
// the database; that happens on the first call to Acquire.
func NewPool(cfg Config, opts ...Option) (*Pool, error) {
	drv, ok := drivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.Driver)
	}

	p := &Pool{cfg: cfg, dialect: drv.dialect}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Acquire returns the database handle, connecting to the database if this is
// the first call. Once a handle was created it is returned as is, without
// checking whether the connection is still usable. A failed connection attempt
// isn't cached, so a later call will try again.
func (p *Pool) Acquire(ctx context.Context) (*sql.DB, error) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.db != nil {
		p.logger.Debug("DB pool already initialized")
		return p.db, nil
	}

	dsn, err := p.cfg.DSN()
	if err != nil {
		return nil, &types.ConnectionError{Driver: p.cfg.Driver, Err: err}
	}

	p.logger.Info("connecting to database", "driver", p.cfg.Driver, "address", p.cfg.Address())
	p.logger.Info("max pool connections", "size", p.cfg.MaxConnections)

	d, err := sql.Open(p.cfg.Driver, dsn)
	if err != nil {
		return nil, &types.ConnectionError{Driver: p.cfg.Driver, Err: err}
	}

	d.SetMaxOpenConns(p.cfg.MaxConnections)
	if p.dialect == types.SQLite && isMemoryDSN(dsn) {
		// The in-memory database is deleted when its last connection is
		// closed. See https://github.com/mattn/go-sqlite3#faq
		d.SetMaxIdleConns(p.cfg.MaxConnections)
		d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
	}

	if err = d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, &types.ConnectionError{Driver: p.cfg.Driver, Err: err}
	}

	p.db = d
	p.logger.Info("DB pool initialized")

	return p.db, nil
}

// Dialect returns the SQL dialect of the configured driver.
func (p *Pool) Dialect() types.Dialect {
	return p.dialect
}

// Close closes the database handle, if it was created.
func (p *Pool) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil

	return err //nolint:wrapcheck // This is fine.
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:")
}
