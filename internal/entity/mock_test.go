package entity

import (
	"context"

	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

// mockExecutor records every statement and answers with canned rows.
type mockExecutor struct {
	Statements []sqlgen.Statement
	ReturnRows []record.Record
	ReturnErr  error
}

func (m *mockExecutor) Query(_ context.Context, st sqlgen.Statement) ([]record.Record, error) {
	m.Statements = append(m.Statements, st)
	return m.ReturnRows, m.ReturnErr
}

func (m *mockExecutor) Exec(_ context.Context, st sqlgen.Statement) error {
	m.Statements = append(m.Statements, st)
	return m.ReturnErr
}

func (m *mockExecutor) last() sqlgen.Statement {
	if len(m.Statements) == 0 {
		return sqlgen.Statement{}
	}
	return m.Statements[len(m.Statements)-1]
}
