package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// mockDB is a testify-backed DB. Calls are matched on (ctx, sql, args).
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	rows, _ := args.Get(0).(pgx.Rows)
	return rows, args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

type scanFunc func(dest ...any) error

// mockRow is a single pgx.Row driven by a scan callback.
type mockRow struct {
	scanFunc scanFunc
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// noRow returns a row whose Scan reports pgx.ErrNoRows.
func noRow() *mockRow {
	return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
}

// mockRows yields one row per scan callback, then err from Err.
type mockRows struct {
	next   int
	rows   []scanFunc
	err    error
	closed bool
}

func newMockRows(rows ...func(dest ...any) error) *mockRows {
	m := &mockRows{}
	for _, r := range rows {
		m.rows = append(m.rows, r)
	}
	return m
}

func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	if m.closed || m.next >= len(m.rows) {
		m.closed = true
		return false
	}
	return true
}

func (m *mockRows) Scan(dest ...any) error {
	if m.next >= len(m.rows) {
		return pgx.ErrNoRows
	}
	fn := m.rows[m.next]
	m.next++
	return fn(dest...)
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       { m.closed = true }
func (m *mockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }
