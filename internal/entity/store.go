// Package entity is the generic persistence layer: it reads, inserts and
// updates any table from a table name and a record, and exposes table
// structure, without per-entity types.
package entity

import (
	"context"
	"errors"
	"log"

	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/result"
	"github.com/rahulmyzone/MiraNext/internal/schema"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

// Executor runs finished statements; *executor.Pool implements it.
type Executor interface {
	Query(ctx context.Context, st sqlgen.Statement) ([]record.Record, error)
	Exec(ctx context.Context, st sqlgen.Statement) error
}

// Config wires a Store. Schema defaults to the dialect's default schema.
type Config struct {
	Executor Executor
	Dialect  sqlgen.Dialect
	Schema   string
	Logger   *log.Logger
}

// Store implements read, write and the two structure operations over a
// single schema qualifier. It is safe for concurrent use as long as the
// Executor is. Concurrent updates of one row are not coordinated: the last
// UPDATE to finish wins.
type Store struct {
	exec   Executor
	intro  *schema.Introspector
	schema string
	logger *log.Logger
}

func New(cfg Config) (*Store, error) {
	if cfg.Executor == nil {
		return nil, errors.New("entity: nil executor")
	}
	if cfg.Dialect == nil {
		return nil, errors.New("entity: nil dialect")
	}
	intro, err := schema.New(cfg.Executor, cfg.Dialect, cfg.Schema)
	if err != nil {
		return nil, err
	}
	return &Store{
		exec:   cfg.Executor,
		intro:  intro,
		schema: intro.Schema(),
		logger: cfg.Logger,
	}, nil
}

func (s *Store) Schema() string { return s.schema }

// Introspector gives access to the schema helpers, e.g. for bootstrapping.
func (s *Store) Introspector() *schema.Introspector { return s.intro }

// Read returns the rows of table matching every present field of filter.
// An empty filter returns every row.
func (s *Store) Read(ctx context.Context, filter record.Record, table string) (result.Envelope, error) {
	t, err := sqlgen.NewTable(s.schema, table)
	if err != nil {
		return result.Envelope{}, err
	}
	st, err := sqlgen.Select(t, filter)
	if err != nil {
		return result.Envelope{}, err
	}
	return s.rows(ctx, "read", st)
}

// Write updates the row named by rec's id when it has one, and inserts rec
// otherwise. Both paths return the stored row.
func (s *Store) Write(ctx context.Context, rec record.Record, table string) (result.Envelope, error) {
	if sqlgen.HasID(rec) {
		return s.Update(ctx, rec, table)
	}
	return s.Insert(ctx, rec.Without(sqlgen.IDColumn), table)
}

// Insert always inserts, including rec's id when set. Use it for tables whose
// keys are assigned by the caller.
func (s *Store) Insert(ctx context.Context, rec record.Record, table string) (result.Envelope, error) {
	t, err := sqlgen.NewTable(s.schema, table)
	if err != nil {
		return result.Envelope{}, err
	}
	st, err := sqlgen.Insert(t, rec)
	if err != nil {
		return result.Envelope{}, err
	}
	return s.rows(ctx, "insert", st)
}

// Update sets every present field of rec except id on the row with rec's id.
// No rows in the envelope means no row had that id.
func (s *Store) Update(ctx context.Context, rec record.Record, table string) (result.Envelope, error) {
	t, err := sqlgen.NewTable(s.schema, table)
	if err != nil {
		return result.Envelope{}, err
	}
	st, err := sqlgen.Update(t, rec)
	if err != nil {
		return result.Envelope{}, err
	}
	return s.rows(ctx, "update", st)
}

// DescribeStructure lists table's columns in ordinal order.
func (s *Store) DescribeStructure(ctx context.Context, table string) (result.Envelope, error) {
	env, err := s.intro.Describe(ctx, table)
	if err != nil {
		s.logf("describe %s: %v", table, err)
	}
	return env, err
}

// CreateStructure creates table from columns if it does not exist yet.
func (s *Store) CreateStructure(ctx context.Context, table string, columns []schema.ColumnDefinition) (result.Envelope, error) {
	env, err := s.intro.CreateFromStructure(ctx, table, columns)
	if err != nil {
		s.logf("create structure %s: %v", table, err)
	}
	return env, err
}

func (s *Store) rows(ctx context.Context, op string, st sqlgen.Statement) (result.Envelope, error) {
	rows, err := s.exec.Query(ctx, st)
	if err != nil {
		s.logf("%s failed: %v; statement: %s", op, err, st)
		return result.Envelope{}, err
	}
	return result.Rows(rows), nil
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
