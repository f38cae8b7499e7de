package loader

import (
	"context"
	"errors"

	"csvwarehouse/internal/warehouse"
)

// Hand-written fakes over warehouse.DB/Tx/Stmt; no database involved.

type fakeStmt struct {
	execs  [][]any
	failAt int // 1-based Exec that fails
	closed bool
}

func (s *fakeStmt) Exec(_ context.Context, args ...any) error {
	s.execs = append(s.execs, append([]any(nil), args...))
	if s.failAt > 0 && len(s.execs) == s.failAt {
		return errors.New("constraint violated")
	}
	return nil
}
func (s *fakeStmt) Close() error { s.closed = true; return nil }

type fakeTx struct {
	stmt       *fakeStmt
	prepared   []string
	prepErr    error
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(context.Context, string, ...any) (int64, error)    { return 0, nil }
func (t *fakeTx) Query(context.Context, string, ...any) ([][]any, error) { return nil, nil }
func (t *fakeTx) Prepare(_ context.Context, q string) (warehouse.Stmt, error) {
	t.prepared = append(t.prepared, q)
	if t.prepErr != nil {
		return nil, t.prepErr
	}
	return t.stmt, nil
}
func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return t.commitErr }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (d *fakeDB) Exec(context.Context, string, ...any) (int64, error)    { return 0, nil }
func (d *fakeDB) Query(context.Context, string, ...any) ([][]any, error) { return nil, nil }
func (d *fakeDB) BeginTx(context.Context) (warehouse.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}
func (d *fakeDB) Close(context.Context) error { return nil }
