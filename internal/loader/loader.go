// Package loader inserts a batch of rows into a warehouse table inside one
// transaction with a single commit point.
//
// Progress: every ProgressEvery rows a line with running totals and
// instantaneous rows/sec is logged, mirroring the batched COPY loaders.
package loader

import (
	"context"
	"errors"
	"log"
	"time"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/records"
	"csvwarehouse/internal/warehouse"
)

// ErrEmptyBatch is returned for an empty row set; "no new data" is handled
// before the loader is called.
var ErrEmptyBatch = errors.New("loader: empty batch")

// DefaultProgressEvery is the progress log interval in rows.
const DefaultProgressEvery = 5000

// Loader holds loader tuning.
type Loader struct {
	ProgressEvery int
}

// Load inserts rows with the default settings.
func Load(ctx context.Context, db warehouse.DB, d warehouse.Dialect, t warehouse.Table, rows []records.Record) (int64, error) {
	return Loader{}.Load(ctx, db, d, t, rows)
}

// Load inserts every row through one prepared INSERT and commits once.
// Nothing is visible before the commit; any failure rolls the batch back and
// returns *etlerr.LoadError naming the failing row and its natural key.
func (l Loader) Load(ctx context.Context, db warehouse.DB, d warehouse.Dialect, t warehouse.Table, rows []records.Record) (int64, error) {
	if len(rows) == 0 {
		return 0, ErrEmptyBatch
	}
	every := l.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}
	cols := t.ColumnNames()
	if dups := records.CountDuplicates(rows, cols); dups > 0 {
		log.Printf("loader: %s batch carries %d duplicate row(s); reconciliation will collapse them", t, dups)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return 0, &etlerr.LoadError{Table: t.String(), Err: err}
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Printf("loader: %s rollback failed: %v", t, rbErr)
		}
	}()

	stmt, err := tx.Prepare(ctx, d.InsertSQL(t))
	if err != nil {
		return 0, &etlerr.LoadError{Table: t.String(), Err: err}
	}
	stmtOpen := true
	defer func() {
		if stmtOpen {
			_ = stmt.Close()
		}
	}()

	var (
		start    = time.Now()
		lastTS   = start
		lastDone int
	)
	args := make([]any, len(cols))
	for i, r := range rows {
		for j, c := range t.Columns {
			args[j] = d.BindValue(c, r[c.Name])
		}
		if err := stmt.Exec(ctx, args...); err != nil {
			log.Printf("loader: %s insert failed at row=%d, rolling back %d row(s)", t, i+1, i)
			return 0, &etlerr.LoadError{Table: t.String(), Row: i + 1, Key: r.KeyString(t.KeyColumns), Err: err}
		}
		if done := i + 1; done%every == 0 {
			now := time.Now()
			since := now.Sub(lastTS)
			rps := float64(0)
			if since > 0 {
				rps = float64(done-lastDone) / since.Seconds()
			}
			log.Printf("loader: %s progress rps=%.0f staged=%d/%d elapsed=%s",
				t, rps, done, len(rows), now.Sub(start).Truncate(time.Millisecond))
			lastTS, lastDone = now, done
		}
	}

	stmtOpen = false
	if err := stmt.Close(); err != nil {
		return 0, &etlerr.LoadError{Table: t.String(), Err: err}
	}
	// a failed commit has already ended the transaction
	committed = true
	if err := tx.Commit(ctx); err != nil {
		return 0, &etlerr.LoadError{Table: t.String(), Err: err}
	}
	log.Printf("loader: %s committed rows=%d elapsed=%s", t, len(rows), time.Since(start).Truncate(time.Millisecond))
	return int64(len(rows)), nil
}
