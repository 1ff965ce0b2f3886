// Package dbtest holds a db.DBTX double for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/pressops/internal/infra/db"
)

var _ db.DBTX = (*Recorder)(nil)

type Call struct {
	SQL  string
	Args []any
}

// Recorder records every statement it is given and answers with canned
// results. A nil Row scans successfully and leaves the targets alone.
type Recorder struct {
	Calls []Call

	Row    []any
	RowErr error
	Rows   [][]any
	Tag    string
	Err    error
}

func (r *Recorder) record(sql string, args []any) {
	r.Calls = append(r.Calls, Call{SQL: sql, Args: args})
}

// Last returns the most recent statement.
func (r *Recorder) Last() Call {
	if len(r.Calls) == 0 {
		return Call{}
	}
	return r.Calls[len(r.Calls)-1]
}

// Flat returns the SQL of the last statement with whitespace collapsed.
func (r *Recorder) Flat() string { return strings.Join(strings.Fields(r.Last().SQL), " ") }

func (r *Recorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.record(sql, args)
	if r.Err != nil {
		return pgconn.CommandTag{}, r.Err
	}
	tag := r.Tag
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (r *Recorder) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	r.record(sql, args)
	if r.Err != nil {
		return nil, r.Err
	}
	return &rows{vals: r.Rows, at: -1}, nil
}

func (r *Recorder) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.record(sql, args)
	return row{vals: r.Row, err: r.RowErr}
}

type row struct {
	vals []any
	err  error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.vals == nil {
		return nil
	}
	return assign(dest, r.vals)
}

type rows struct {
	pgx.Rows
	vals [][]any
	at   int
}

func (r *rows) Close()     {}
func (r *rows) Err() error { return nil }

func (r *rows) Next() bool {
	r.at++
	return r.at < len(r.vals)
}

func (r *rows) Scan(dest ...any) error { return assign(dest, r.vals[r.at]) }

func assign(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("dbtest: %d targets for %d values", len(dest), len(vals))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		if vals[i] == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		v := reflect.ValueOf(vals[i])
		if !v.Type().ConvertibleTo(dv.Type()) {
			return fmt.Errorf("dbtest: column %d: %s into %s", i, v.Type(), dv.Type())
		}
		dv.Set(v.Convert(dv.Type()))
	}
	return nil
}
