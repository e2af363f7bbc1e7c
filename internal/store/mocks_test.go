package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRows serves canned result sets through the pgx.Rows interface.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(row))
	}

	for i, value := range row {
		switch d := dest[i].(type) {
		case *uint16:
			*d = value.(uint16)
		case *uint32:
			*d = value.(uint32)
		case *float64:
			*d = value.(float64)
		case *string:
			*d = value.(string)
		default:
			if err := assignTime(d, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// execCall records one statement with its arguments.
type execCall struct {
	SQL  string
	Args []any
}

// fakeTx captures statements executed inside a transaction.
type fakeTx struct {
	pgx.Tx
	db        *fakeDB
	committed bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if err := t.db.execErrFor(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	t.db.Execs = append(t.db.Execs, execCall{SQL: sql, Args: args})
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	t.db.Commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.db.Rollbacks++
	}
	return nil
}

func assignTime(dest, value any) error {
	d, ok := dest.(*time.Time)
	if !ok {
		return fmt.Errorf("unsupported scan target %T", dest)
	}
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("cannot assign %T to *time.Time", value)
	}
	*d = t
	return nil
}

// fakeDB implements DB with canned query results and captured writes.
type fakeDB struct {
	Results   map[string]*fakeRows // keyed by a substring of the SQL
	Execs     []execCall
	Commits   int
	Rollbacks int
	FailOn    string // substring of SQL that should error
}

func newFakeDB() *fakeDB {
	return &fakeDB{Results: make(map[string]*fakeRows)}
}

func (db *fakeDB) execErrFor(sql string) error {
	if db.FailOn != "" && strings.Contains(sql, db.FailOn) {
		return fmt.Errorf("forced failure on %q", db.FailOn)
	}
	return nil
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	for key, rows := range db.Results {
		if strings.Contains(sql, key) {
			return &fakeRows{rows: rows.rows, err: rows.err}, nil
		}
	}
	return &fakeRows{}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if err := db.execErrFor(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	db.Execs = append(db.Execs, execCall{SQL: sql, Args: args})
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{db: db}, nil
}
