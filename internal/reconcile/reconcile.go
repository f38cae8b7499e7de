// Package reconcile collapses rows that are identical across every business
// column down to a single survivor.
package reconcile

import (
	"context"
	"fmt"
	"log"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/warehouse"
)

// Reconcile runs the dialect's rank-and-delete statements in one transaction
// and returns how many rows were removed. Which copy of a duplicate survives
// is unspecified. Failures wrap etlerr.ErrReconciliation; rows loaded before
// the call are unaffected.
func Reconcile(ctx context.Context, db warehouse.DB, d warehouse.Dialect, t warehouse.Table) (removed int64, err error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: begin: %v", etlerr.ErrReconciliation, t, err)
	}
	done := false
	defer func() {
		if !done {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				log.Printf("reconcile: %s rollback failed: %v", t, rbErr)
			}
		}
	}()

	before, err := count(ctx, tx, d, t)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", etlerr.ErrReconciliation, t, err)
	}
	for _, q := range d.DedupSQL(t) {
		if _, err := tx.Exec(ctx, q); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", etlerr.ErrReconciliation, t, err)
		}
	}
	after, err := count(ctx, tx, d, t)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", etlerr.ErrReconciliation, t, err)
	}

	done = true
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %s: commit: %v", etlerr.ErrReconciliation, t, err)
	}
	removed = before - after
	if removed > 0 {
		log.Printf("reconcile: %s removed %d duplicate row(s), %d remain", t, removed, after)
	}
	return removed, nil
}

func count(ctx context.Context, tx warehouse.Tx, d warehouse.Dialect, t warehouse.Table) (int64, error) {
	v, err := warehouse.QueryScalar(ctx, tx, d.CountSQL(t))
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return warehouse.ToInt64(v)
}
