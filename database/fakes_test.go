package database

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB answers queries by matching a fragment of the SQL text.
type fakeDB struct {
	rows   map[string][][]any
	errs   map[string]error
	calls  []fakeCall
	execed []string
}

type fakeCall struct {
	sql  string
	args []any
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[string][][]any{}, errs: map[string]error{}}
}

func (f *fakeDB) match(sql string) (string, bool) {
	for fragment := range f.rows {
		if strings.Contains(sql, fragment) {
			return fragment, true
		}
	}
	for fragment := range f.errs {
		if strings.Contains(sql, fragment) {
			return fragment, true
		}
	}
	return "", false
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, fakeCall{sql: sql, args: args})
	fragment, ok := f.match(sql)
	if !ok {
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	if err := f.errs[fragment]; err != nil {
		return nil, err
	}
	return &fakeRows{data: f.rows[fragment], pos: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	rows, err := f.Query(ctx, sql, args...)
	if err != nil {
		return fakeRow{err: err}
	}
	r := rows.(*fakeRows)
	if len(r.data) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: r.data[0]}
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execed = append(f.execed, sql)
	if fragment, ok := f.match(sql); ok && f.errs[fragment] != nil {
		return pgconn.CommandTag{}, f.errs[fragment]
	}
	return pgconn.NewCommandTag("ALTER TABLE"), nil
}

func (f *fakeDB) lastCall() fakeCall {
	return f.calls[len(f.calls)-1]
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.pos], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos], nil
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}
