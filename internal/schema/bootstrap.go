package schema

import (
	"context"
	"fmt"

	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

func def(s string) *string { return &s }

// DashboardTables are the tables the trading dashboard reads and writes. Each
// also gets a generated id column in front, typed for the dialect.
var DashboardTables = []struct {
	Name    string
	Columns []ColumnDefinition
}{
	{
		Name: "broker",
		Columns: []ColumnDefinition{
			{Name: "name", DataType: "TEXT", IsNullable: "NO"},
			{Name: "code", DataType: "TEXT", IsNullable: "YES"},
			{Name: "status", DataType: "TEXT", IsNullable: "YES", Default: def("'connected'")},
			{Name: "balance", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "created_at", DataType: "TIMESTAMP", IsNullable: "YES", Default: def("CURRENT_TIMESTAMP")},
		},
	},
	{
		Name: "positions",
		Columns: []ColumnDefinition{
			{Name: "symbol", DataType: "TEXT", IsNullable: "NO"},
			{Name: "type", DataType: "TEXT", IsNullable: "YES", Default: def("'LONG'")},
			{Name: "quantity", DataType: "DOUBLE PRECISION", IsNullable: "NO", Default: def("0")},
			{Name: "entry_price", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "current_price", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "pnl", DataType: "DOUBLE PRECISION", IsNullable: "YES", Default: def("0")},
			{Name: "broker", DataType: "TEXT", IsNullable: "YES"},
			{Name: "algorithm", DataType: "TEXT", IsNullable: "YES"},
			{Name: "status", DataType: "TEXT", IsNullable: "YES", Default: def("'OPEN'")},
			{Name: "timestamp", DataType: "TIMESTAMP", IsNullable: "YES", Default: def("CURRENT_TIMESTAMP")},
		},
	},
	{
		Name: "trades",
		Columns: []ColumnDefinition{
			{Name: "symbol", DataType: "TEXT", IsNullable: "NO"},
			{Name: "type", DataType: "TEXT", IsNullable: "YES"},
			{Name: "quantity", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "entry_price", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "exit_price", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "pnl", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "broker", DataType: "TEXT", IsNullable: "YES"},
			{Name: "algorithm", DataType: "TEXT", IsNullable: "YES"},
			{Name: "date", DataType: "TEXT", IsNullable: "YES"},
			{Name: "duration", DataType: "TEXT", IsNullable: "YES"},
			{Name: "timestamp", DataType: "TIMESTAMP", IsNullable: "YES", Default: def("CURRENT_TIMESTAMP")},
		},
	},
	{
		Name: "portfolio_history",
		Columns: []ColumnDefinition{
			{Name: "date", DataType: "TEXT", IsNullable: "NO"},
			{Name: "value", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "pnl", DataType: "DOUBLE PRECISION", IsNullable: "YES"},
			{Name: "algorithm", DataType: "TEXT", IsNullable: "YES"},
		},
	},
}

// IdentityColumn returns the generated id column for table and the statements
// that must run before the table is created.
func (in *Introspector) IdentityColumn(table string) (ColumnDefinition, []sqlgen.Statement, error) {
	t, err := sqlgen.NewTable(in.schema, table)
	if err != nil {
		return ColumnDefinition{}, nil, err
	}
	typ, defExpr, prelude := in.dialect.Identity(t)
	col := ColumnDefinition{Name: sqlgen.IDColumn, DataType: typ, IsNullable: "NO"}
	if defExpr != "" {
		col.Default = def(defExpr)
	}
	stmts := make([]sqlgen.Statement, 0, len(prelude))
	for _, p := range prelude {
		stmts = append(stmts, sqlgen.Statement{Text: p})
	}
	return col, stmts, nil
}

// Bootstrap creates the schema and every dashboard table that is missing.
// Existing tables are left as they are.
func (in *Introspector) Bootstrap(ctx context.Context) error {
	if err := in.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("create schema %s: %w", in.schema, err)
	}
	for _, tbl := range DashboardTables {
		id, prelude, err := in.IdentityColumn(tbl.Name)
		if err != nil {
			return err
		}
		for _, st := range prelude {
			if err := in.exec.Exec(ctx, st); err != nil {
				return fmt.Errorf("prepare %s: %w", tbl.Name, err)
			}
		}
		cols := append([]ColumnDefinition{id}, tbl.Columns...)
		if _, err := in.CreateFromStructure(ctx, tbl.Name, cols); err != nil {
			return fmt.Errorf("create %s: %w", tbl.Name, err)
		}
	}
	return nil
}
