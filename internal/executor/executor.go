// Package executor owns the connection pool to the relational store and runs
// finished statements, turning driver rows into records.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

// ErrClosed is returned for statements issued after Close.
var ErrClosed = errors.New("executor is closed")

// StatementError carries a failed statement. Its message is the driver's
// message unchanged so callers can forward it as is.
type StatementError struct {
	Statement sqlgen.Statement
	Err       error
}

func (e *StatementError) Error() string { return e.Err.Error() }
func (e *StatementError) Unwrap() error { return e.Err }

// Options sizes the pool. Zero values keep the database/sql defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Pool runs statements on a shared *sqlx.DB. It is safe for concurrent use;
// each call takes a connection from the pool and gives it back.
type Pool struct {
	db     *sqlx.DB
	closed atomic.Bool
}

// Open connects with a database/sql driver name and DSN. The driver must be
// registered by the caller's imports.
func Open(driver, dsn string, opts Options) (*Pool, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sqlx.DB) *Pool {
	return &Pool{db: db}
}

// DriverName returns the driver the pool was opened with.
func (p *Pool) DriverName() string { return p.db.DriverName() }

// DB exposes the underlying handle.
func (p *Pool) DB() *sqlx.DB { return p.db }

func (p *Pool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.db.PingContext(ctx)
}

// Query runs st and returns every row as a Record with columns in result order.
func (p *Pool) Query(ctx context.Context, st sqlgen.Statement) ([]record.Record, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := p.db.QueryxContext(ctx, p.bind(st), st.DriverArgs()...)
	if err != nil {
		return nil, &StatementError{Statement: st, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &StatementError{Statement: st, Err: err}
	}
	out := []record.Record{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, &StatementError{Statement: st, Err: err}
		}
		rec, err := toRecord(cols, vals)
		if err != nil {
			return nil, &StatementError{Statement: st, Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StatementError{Statement: st, Err: err}
	}
	return out, nil
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, st sqlgen.Statement) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if _, err := p.db.ExecContext(ctx, p.bind(st), st.DriverArgs()...); err != nil {
		return &StatementError{Statement: st, Err: err}
	}
	return nil
}

// bind rewrites ? placeholders into the driver's style. Statements without
// arguments are sent as written: Rebind does not skip string literals, so a
// DEFAULT 'what?' would otherwise change.
func (p *Pool) bind(st sqlgen.Statement) string {
	if len(st.Args) == 0 {
		return st.Text
	}
	return p.db.Rebind(st.Text)
}

// Close releases the pool. Later calls fail with ErrClosed.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.db.Close()
}

func toRecord(cols []string, vals []any) (record.Record, error) {
	var rec record.Record
	for i, c := range cols {
		v, err := normalize(vals[i])
		if err != nil {
			return record.Record{}, fmt.Errorf("column %s: %w", c, err)
		}
		rec.Set(c, v)
	}
	return rec, nil
}
