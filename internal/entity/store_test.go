package entity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rahulmyzone/MiraNext/internal/executor"
	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/schema"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

func newMockStore(t *testing.T) (*Store, *mockExecutor) {
	t.Helper()
	m := &mockExecutor{}
	s, err := New(Config{Executor: m, Dialect: sqlgen.Postgres{}, Schema: "mira"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, m
}

func TestWriteDispatch(t *testing.T) {
	ctx := context.Background()
	s, m := newMockStore(t)

	if _, err := s.Write(ctx, record.New(record.F("symbol", record.Text("AAPL")), record.F("quantity", record.Int(100))), "positions"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !strings.HasPrefix(m.last().Text, `INSERT INTO "mira"."positions"`) {
		t.Fatalf("expected INSERT, got %s", m.last().Text)
	}

	if _, err := s.Write(ctx, record.New(record.F("id", record.Int(1)), record.F("quantity", record.Int(150))), "positions"); err != nil {
		t.Fatalf("update: %v", err)
	}
	want := `UPDATE "mira"."positions" SET "quantity" = ? WHERE "id" = ? RETURNING *`
	if m.last().Text != want {
		t.Fatalf("want %s\ngot  %s", want, m.last().Text)
	}

	if _, err := s.Write(ctx, record.New(record.F("id", record.Text("null")), record.F("symbol", record.Text("TSLA"))), "positions"); err != nil {
		t.Fatalf("insert with null id: %v", err)
	}
	if !strings.HasPrefix(m.last().Text, "INSERT") {
		t.Fatalf("null id should insert, got %s", m.last().Text)
	}
}

func TestReadEmptyFilterHasNoWhere(t *testing.T) {
	s, m := newMockStore(t)
	if _, err := s.Read(context.Background(), record.Record{}, "broker"); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if m.last().Text != `SELECT * FROM "mira"."broker"` {
		t.Fatalf("unexpected statement %s", m.last().Text)
	}
}

func TestInvalidTableNeverReachesExecutor(t *testing.T) {
	s, m := newMockStore(t)
	_, err := s.Read(context.Background(), record.Record{}, "broker;DROP TABLE positions")
	if !errors.Is(err, sqlgen.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if len(m.Statements) != 0 {
		t.Fatalf("executor should not be called, got %v", m.Statements)
	}
}

func TestExecutorErrorPropagates(t *testing.T) {
	s, m := newMockStore(t)
	var buf bytes.Buffer
	s.logger = log.New(&buf, "", 0)
	m.ReturnErr = errors.New(`duplicate key value violates unique constraint "positions_pkey"`)

	_, err := s.Write(context.Background(), record.New(record.F("id", record.Int(1)), record.F("symbol", record.Text("AAPL"))), "positions")
	if err == nil || err.Error() != m.ReturnErr.Error() {
		t.Fatalf("expected store message verbatim, got %v", err)
	}
	if !strings.Contains(buf.String(), `SET "symbol" = 'AAPL' WHERE "id" = 1`) {
		t.Fatalf("expected failed statement in log, got %q", buf.String())
	}
}

func TestNewRejectsBadSchema(t *testing.T) {
	_, err := New(Config{Executor: &mockExecutor{}, Dialect: sqlgen.SQLite{}, Schema: "main.x"})
	if !errors.Is(err, sqlgen.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

// The remaining tests run against an in-memory SQLite database.

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	pool, err := executor.Open("sqlite3", dsn, executor.Options{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	s, err := New(Config{Executor: pool, Dialect: sqlgen.SQLite{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cols := []schema.ColumnDefinition{
		{Name: "id", DataType: "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{Name: "symbol", DataType: "TEXT", IsNullable: "NO"},
		{Name: "quantity", DataType: "INTEGER"},
		{Name: "broker", DataType: "TEXT"},
		{Name: "timestamp", DataType: "TEXT"},
	}
	if _, err := s.CreateStructure(context.Background(), "positions", cols); err != nil {
		t.Fatalf("create positions: %v", err)
	}
	return s
}

func TestInsertReturnsGeneratedID(t *testing.T) {
	s := newSQLiteStore(t)
	env, err := s.Write(context.Background(), record.New(
		record.F("symbol", record.Text("AAPL")),
		record.F("quantity", record.Int(100)),
	), "positions")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !env.OK() || env.Count() != 1 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	row := env.Items[0]
	if id, _ := row.Get("id"); !id.Equal(record.Int(1)) {
		t.Fatalf("expected id 1, got %v", id)
	}
	if q, _ := row.Get("quantity"); !q.Equal(record.Int(100)) {
		t.Fatalf("expected quantity 100, got %v", q)
	}
}

func TestWriteWithEmptyIDInserts(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	for i, id := range []record.Value{record.Text(""), record.Null(), record.Text("null")} {
		env, err := s.Write(ctx, record.New(
			record.F("id", id),
			record.F("symbol", record.Text("AAPL")),
			record.F("quantity", record.Int(100)),
		), "positions")
		if err != nil {
			t.Fatalf("write with id %v: %v", id, err)
		}
		if got, _ := env.Items[0].Get("id"); !got.Equal(record.Int(int64(i + 1))) {
			t.Fatalf("expected generated id %d, got %v", i+1, got)
		}
	}
}

func TestUpdateReturnsUpdatedRow(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	if _, err := s.Write(ctx, record.New(record.F("symbol", record.Text("AAPL")), record.F("quantity", record.Int(100))), "positions"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	env, err := s.Write(ctx, record.New(record.F("id", record.Int(1)), record.F("quantity", record.Int(150))), "positions")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if env.Count() != 1 {
		t.Fatalf("expected 1 updated row, got %d", env.Count())
	}
	row := env.Items[0]
	if q, _ := row.Get("quantity"); !q.Equal(record.Int(150)) {
		t.Fatalf("expected quantity 150, got %v", q)
	}
	if sym, _ := row.Get("symbol"); !sym.Equal(record.Text("AAPL")) {
		t.Fatalf("untouched column changed: %v", sym)
	}

	env, err = s.Write(ctx, record.New(record.F("id", record.Int(99)), record.F("quantity", record.Int(1))), "positions")
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if env.Count() != 0 {
		t.Fatalf("expected no rows for unknown id, got %d", env.Count())
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	in := record.New(
		record.F("symbol", record.Text("TSLA")),
		record.F("quantity", record.Int(50)),
		record.F("broker", record.Text("Interactive Brokers")),
		record.F("timestamp", record.Text("2024-01-10T14:30:00Z")),
	)
	env, err := s.Write(ctx, in, "positions")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	id, _ := env.Items[0].Get("id")

	got, err := s.Read(ctx, record.New(record.F("id", id)), "positions")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Count() != 1 {
		t.Fatalf("expected 1 row, got %d", got.Count())
	}
	row := got.Items[0]
	for _, f := range in.Present() {
		v, _ := row.Get(f.Name)
		want := sqlgen.Format(f.Name, f.Value)
		if !v.Equal(want) {
			t.Errorf("%s: want %v, got %v", f.Name, want, v)
		}
	}
	if ts, _ := row.Get("timestamp"); !ts.Equal(record.Text("2024-01-10 14:30:00")) {
		t.Errorf("timestamp not normalized: %v", ts)
	}
}

func TestReadFilters(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seed := []record.Record{
		record.New(record.F("symbol", record.Text("AAPL")), record.F("quantity", record.Int(100)), record.F("broker", record.Text("TD Ameritrade"))),
		record.New(record.F("symbol", record.Text("TSLA")), record.F("quantity", record.Int(50)), record.F("broker", record.Text("Interactive Brokers"))),
		record.New(record.F("symbol", record.Text("MSFT")), record.F("quantity", record.Int(100)), record.F("broker", record.Text("TD Ameritrade"))),
	}
	for _, r := range seed {
		if _, err := s.Write(ctx, r, "positions"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := s.Read(ctx, record.Record{}, "positions")
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if all.Count() != 3 {
		t.Fatalf("expected 3 rows, got %d", all.Count())
	}

	td, err := s.Read(ctx, record.New(record.F("broker", record.Text("TD Ameritrade"))), "positions")
	if err != nil {
		t.Fatalf("read by broker: %v", err)
	}
	if td.Count() != 2 {
		t.Fatalf("expected 2 TD Ameritrade rows, got %d", td.Count())
	}
	for _, row := range td.Items {
		if b, _ := row.Get("broker"); !b.Equal(record.Text("TD Ameritrade")) {
			t.Fatalf("filter leaked row %v", row)
		}
	}

	both, err := s.Read(ctx, record.New(
		record.F("broker", record.Text("TD Ameritrade")),
		record.F("quantity", record.Int(100)),
		record.F("symbol", record.Text("null")),
	), "positions")
	if err != nil {
		t.Fatalf("read by two fields: %v", err)
	}
	if both.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", both.Count())
	}
}

func TestHostileValuesAreStoredVerbatim(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	evil := "x'); DROP TABLE positions; --"
	if _, err := s.Write(ctx, record.New(record.F("symbol", record.Text(evil))), "positions"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	env, err := s.Read(ctx, record.New(record.F("symbol", record.Text(evil))), "positions")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if env.Count() != 1 {
		t.Fatalf("expected the hostile value back as data, got %d rows", env.Count())
	}
}

func TestStoreErrorsSurface(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	if _, err := s.Read(ctx, record.Record{}, "no_such_table"); err == nil {
		t.Fatal("expected error for unknown table")
	}
	_, err := s.Write(ctx, record.New(record.F("quantity", record.Int(1))), "positions")
	if err == nil {
		t.Fatal("expected NOT NULL violation")
	}
	var se *executor.StatementError
	if !errors.As(err, &se) {
		t.Fatalf("expected *executor.StatementError, got %T", err)
	}
}

func TestConcurrentUpdatesLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	if _, err := s.Write(ctx, record.New(record.F("symbol", record.Text("AAPL")), record.F("quantity", record.Int(0))), "positions"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(q int64) {
			defer wg.Done()
			if _, err := s.Write(ctx, record.New(record.F("id", record.Int(1)), record.F("quantity", record.Int(q))), "positions"); err != nil {
				t.Errorf("update %d: %v", q, err)
			}
		}(int64(i))
	}
	wg.Wait()

	env, err := s.Read(ctx, record.New(record.F("id", record.Int(1))), "positions")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	q, _ := env.Items[0].Get("quantity")
	n, ok := q.AsInt()
	if !ok || n < 1 || n > 8 {
		t.Fatalf("expected one of the written quantities, got %v", q)
	}
}
