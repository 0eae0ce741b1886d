package sqlgen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDialect is returned by DialectFor for unsupported drivers.
var ErrUnknownDialect = errors.New("unknown dialect")

// Dialect captures the per-store differences the layer cares about: the
// catalog query used for introspection, schema handling and identity columns.
// Statements are always written with ? placeholders; the executor rebinds them.
type Dialect interface {
	Name() string
	DriverName() string
	DefaultSchema() string

	// DescribeQuery returns a catalog query taking (schema, table) bound
	// parameters and yielding column_name, data_type, is_nullable and
	// column_default ordered by column position.
	DescribeQuery() string

	// CreateSchema returns the statement creating schema, or "" when the
	// store has no schemas to create.
	CreateSchema(schema string) string

	// Identity returns the data type and default for an auto-generated id
	// column of t, plus statements that must run before the table is created.
	Identity(t Table) (dataType, defaultExpr string, prelude []string)
}

// DialectFor resolves a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	case "pgx", "postgres", "postgresql":
		return Postgres{}, nil
	case "duckdb":
		return DuckDB{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, driver)
	}
}

// SQLite keeps tables in the "main" database; attached databases act as
// schemas but cannot be created with DDL.
type SQLite struct{}

func (SQLite) Name() string          { return "sqlite" }
func (SQLite) DriverName() string    { return "sqlite3" }
func (SQLite) DefaultSchema() string { return "main" }

func (SQLite) DescribeQuery() string {
	return `SELECT name AS column_name,
       type AS data_type,
       CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END AS is_nullable,
       dflt_value AS column_default
FROM pragma_table_info(?2, ?1)
ORDER BY cid`
}

func (SQLite) CreateSchema(string) string { return "" }

func (SQLite) Identity(Table) (string, string, []string) {
	return "INTEGER PRIMARY KEY AUTOINCREMENT", "", nil
}

// Postgres targets PostgreSQL through the pgx stdlib driver.
type Postgres struct{}

func (Postgres) Name() string          { return "postgres" }
func (Postgres) DriverName() string    { return "pgx" }
func (Postgres) DefaultSchema() string { return "public" }

func (Postgres) DescribeQuery() string { return informationSchemaQuery }

func (Postgres) CreateSchema(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + QuoteIdent(schema)
}

func (Postgres) Identity(Table) (string, string, []string) {
	return "BIGSERIAL PRIMARY KEY", "", nil
}

// DuckDB has schemas and information_schema but no serial types, so ids come
// from a per-table sequence.
type DuckDB struct{}

func (DuckDB) Name() string          { return "duckdb" }
func (DuckDB) DriverName() string    { return "duckdb" }
func (DuckDB) DefaultSchema() string { return "main" }

func (DuckDB) DescribeQuery() string { return informationSchemaQuery }

func (DuckDB) CreateSchema(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + QuoteIdent(schema)
}

func (DuckDB) Identity(t Table) (string, string, []string) {
	seq := Table{Schema: t.Schema, Name: t.Name + "_id_seq"}
	return "BIGINT PRIMARY KEY",
		fmt.Sprintf("nextval('%s')", seq.String()),
		[]string{"CREATE SEQUENCE IF NOT EXISTS " + seq.Qualified()}
}

const informationSchemaQuery = `SELECT column_name,
       data_type,
       is_nullable,
       column_default
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`
