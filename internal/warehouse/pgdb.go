package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConnLike is the subset of *pgx.Conn the adapter uses.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// pgDB is the native Postgres session. pgx caches prepared statements per
// connection, so Prepare only remembers the text.
type pgDB struct{ conn pgConnLike }

// NewPgDB connects with pgx.
func NewPgDB(ctx context.Context, dsn string) (DB, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: c}, nil
}

func (p *pgDB) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	tag, err := p.conn.Exec(ctx, q, args...)
	if err != nil {
		return 0, pgDetail(err)
	}
	return tag.RowsAffected(), nil
}

func (p *pgDB) Query(ctx context.Context, q string, args ...any) ([][]any, error) {
	rows, err := p.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, pgDetail(err)
	}
	return collectPg(rows)
}

func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (p *pgDB) Close(ctx context.Context) error { return p.conn.Close(ctx) }

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, q, args...)
	if err != nil {
		return 0, pgDetail(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Query(ctx context.Context, q string, args ...any) ([][]any, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, pgDetail(err)
	}
	return collectPg(rows)
}

func (t *pgTx) Prepare(_ context.Context, q string) (Stmt, error) {
	return &pgStmt{tx: t.tx, sql: q}, nil
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

type pgStmt struct {
	tx  pgx.Tx
	sql string
}

func (s *pgStmt) Exec(ctx context.Context, args ...any) error {
	_, err := s.tx.Exec(ctx, s.sql, args...)
	return pgDetail(err)
}

func (s *pgStmt) Close() error { return nil }

func collectPg(rows pgx.Rows) ([][]any, error) {
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) ([]any, error) {
		return r.Values()
	})
	return out, pgDetail(err)
}

// pgDetail surfaces the server's detail line and SQLSTATE, which pgx keeps
// out of Error().
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (detail: %s, sqlstate %s)", err, pgErr.Detail, pgErr.Code)
	}
	return err
}
