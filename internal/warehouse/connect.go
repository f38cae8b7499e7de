package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/microsoft/go-mssqldb/msdsn"

	"csvwarehouse/internal/etlerr"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Config selects and reaches one warehouse.
type Config struct {
	Driver string
	DSN    string

	// Attempts bounds connection tries (<=1 means a single try).
	Attempts int
	// InitialBackoff is the first retry delay; zero uses 500ms.
	InitialBackoff time.Duration
}

type opener func(ctx context.Context, dsn string) (DB, error)

var openers = map[string]opener{
	"sqlserver": openSQLServer,
	"postgres":  NewPgDB,
	"sqlite":    openSQLite,
	"mysql":     openMySQL,
}

// Connect resolves the dialect and opens a session, retrying transient
// failures with exponential backoff. Malformed DSNs fail immediately. Every
// failure wraps etlerr.ErrConnection.
func Connect(ctx context.Context, cfg Config) (DB, Dialect, error) {
	d, err := LookupDialect(cfg.Driver)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", etlerr.ErrConnection, err)
	}
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("%w: empty DSN for %s", etlerr.ErrConnection, d.Name())
	}
	open := openers[d.Name()]

	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	eb := backoff.NewExponentialBackOff()
	if cfg.InitialBackoff > 0 {
		eb.InitialInterval = cfg.InitialBackoff
	}
	var policy backoff.BackOff = backoff.WithMaxRetries(eb, uint64(attempts-1))
	policy = backoff.WithContext(policy, ctx)

	var db DB
	try := 0
	err = backoff.Retry(func() error {
		try++
		c, err := open(ctx, cfg.DSN)
		if err != nil {
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) && try < attempts {
				log.Printf("warehouse: connect %s attempt %d/%d failed: %v", d.Name(), try, attempts, err)
			}
			return err
		}
		db = c
		return nil
	}, policy)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", etlerr.ErrConnection, d.Name(), err)
	}
	return db, d, nil
}

func openSQLServer(ctx context.Context, dsn string) (DB, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid sqlserver dsn: %w", err))
	}
	return openDatabaseSQL(ctx, "sqlserver", dsn, 0)
}

// openSQLite pins one connection so ":memory:" databases stay a single
// database for the whole session.
func openSQLite(ctx context.Context, dsn string) (DB, error) {
	return openDatabaseSQL(ctx, "sqlite", dsn, 1)
}

// openMySQL forces parseTime and UTC so DATETIME columns scan as time.Time.
func openMySQL(ctx context.Context, dsn string) (DB, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid mysql dsn: %w", err))
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return openDatabaseSQL(ctx, "mysql", mc.FormatDSN(), 0)
}

func openDatabaseSQL(ctx context.Context, driver, dsn string, maxOpen int) (DB, error) {
	d, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if maxOpen > 0 {
		d.SetMaxOpenConns(maxOpen)
	}
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return NewSQLDB(d), nil
}
