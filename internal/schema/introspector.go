// Package schema reads table structure from the store's catalog and creates
// tables from column definitions.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/result"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

// Executor is the part of the connection executor the introspector needs.
type Executor interface {
	Query(ctx context.Context, st sqlgen.Statement) ([]record.Record, error)
	Exec(ctx context.Context, st sqlgen.Statement) error
}

// Introspector works on tables under a single schema qualifier.
type Introspector struct {
	exec    Executor
	dialect sqlgen.Dialect
	schema  string
}

// New validates the schema name up front; every table the introspector
// touches lives under it.
func New(exec Executor, dialect sqlgen.Dialect, schemaName string) (*Introspector, error) {
	if schemaName == "" {
		schemaName = dialect.DefaultSchema()
	}
	if err := sqlgen.CheckIdent("schema", schemaName); err != nil {
		return nil, err
	}
	return &Introspector{exec: exec, dialect: dialect, schema: schemaName}, nil
}

func (in *Introspector) Schema() string { return in.schema }

// Describe lists the columns of table in ordinal order. Schema and table are
// bound parameters of the catalog query. An unknown table yields no rows.
func (in *Introspector) Describe(ctx context.Context, table string) (result.Envelope, error) {
	if err := sqlgen.CheckIdent("table", table); err != nil {
		return result.Envelope{}, err
	}
	st := sqlgen.Statement{
		Text: in.dialect.DescribeQuery(),
		Args: []record.Value{record.Text(in.schema), record.Text(table)},
	}
	rows, err := in.exec.Query(ctx, st)
	if err != nil {
		return result.Envelope{}, err
	}
	return result.Rows(rows), nil
}

// Definitions is Describe decoded into ColumnDefinitions.
func (in *Introspector) Definitions(ctx context.Context, table string) ([]ColumnDefinition, error) {
	env, err := in.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	return DefinitionsFromRecords(env.Items), nil
}

// CreateStatement renders CREATE TABLE IF NOT EXISTS for columns.
func (in *Introspector) CreateStatement(table string, columns []ColumnDefinition) (sqlgen.Statement, error) {
	t, err := sqlgen.NewTable(in.schema, table)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	if len(columns) == 0 {
		return sqlgen.Statement{}, fmt.Errorf("%w: table %s has no columns", ErrInvalidDefinition, table)
	}
	lines := make([]string, 0, len(columns))
	for _, c := range columns {
		line, err := c.render()
		if err != nil {
			return sqlgen.Statement{}, err
		}
		lines = append(lines, line)
	}
	text := "CREATE TABLE IF NOT EXISTS " + t.Qualified() + " (\n  " + strings.Join(lines, ",\n  ") + "\n)"
	return sqlgen.Statement{Text: text}, nil
}

// CreateFromStructure creates table from columns unless it already exists.
// Running it again against an existing table changes nothing and succeeds.
func (in *Introspector) CreateFromStructure(ctx context.Context, table string, columns []ColumnDefinition) (result.Envelope, error) {
	st, err := in.CreateStatement(table, columns)
	if err != nil {
		return result.Envelope{}, err
	}
	if err := in.exec.Exec(ctx, st); err != nil {
		return result.Envelope{}, err
	}
	return result.Message(fmt.Sprintf("Table %s created.", table)), nil
}

// EnsureSchema creates the schema qualifier where the store supports it.
func (in *Introspector) EnsureSchema(ctx context.Context) error {
	text := in.dialect.CreateSchema(in.schema)
	if text == "" {
		return nil
	}
	return in.exec.Exec(ctx, sqlgen.Statement{Text: text})
}
