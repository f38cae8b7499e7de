// Package warehouse is the narrow interface to the target database: a
// session (DB) that executes statements, transactions with a single commit
// point, and per-engine statement templates (Dialect) generated from a typed
// Table descriptor.
//
// Backends:
//
//   - "sqlserver" via github.com/microsoft/go-mssqldb (database/sql)
//   - "postgres"  via github.com/jackc/pgx/v5 (native connection)
//   - "sqlite"    via modernc.org/sqlite (database/sql)
//   - "mysql"     via github.com/go-sql-driver/mysql (database/sql)
package warehouse

import "context"

// DB is one warehouse session. It is acquired at run start and closed once.
type DB interface {
	// Exec runs a statement outside a transaction and returns rows affected
	// (-1 when the driver cannot report it).
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement and materializes every row.
	Query(ctx context.Context, query string, args ...any) ([][]any, error)
	BeginTx(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Tx is a transaction. Nothing it does is visible until Commit.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) ([][]any, error)
	Prepare(ctx context.Context, query string) (Stmt, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Stmt is a prepared statement bound to a transaction.
type Stmt interface {
	Exec(ctx context.Context, args ...any) error
	Close() error
}

// QueryScalar returns the first column of the first row, or nil when the
// query produced no rows.
func QueryScalar(ctx context.Context, q interface {
	Query(ctx context.Context, query string, args ...any) ([][]any, error)
}, query string, args ...any) (any, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil
	}
	return rows[0][0], nil
}
