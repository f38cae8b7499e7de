package pipeline

import (
	"context"
	"errors"
	"time"

	"csvwarehouse/internal/config"
	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/reconcile"
	"csvwarehouse/internal/watermark"
)

// TableWatermark is the current cursor of one table.
type TableWatermark struct {
	Table     string
	Watermark time.Time
	Err       error
}

// Watermarks resolves the watermark of every job table without loading.
func Watermarks(ctx context.Context, cfg Config, deps Deps, job config.Job) (out []TableWatermark, err error) {
	deps = deps.withDefaults()
	sess, err := Open(ctx, cfg, deps, jobName(job))
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrConnection, "", "connect", err)
	}
	defer closeSession(ctx, sess, &err)

	var errs []error
	for _, tj := range job.Tables {
		w, err := watermark.Resolve(ctx, sess.DB, sess.Dialect, tj.Table)
		tw := TableWatermark{Table: tj.Table.String(), Watermark: w}
		if err != nil {
			tw.Err = etlerr.Wrap(kindOf(err, etlerr.ErrSchema), tw.Table, "watermark", err)
			errs = append(errs, tw.Err)
		}
		out = append(out, tw)
	}
	return out, errors.Join(errs...)
}

// DedupResult is the outcome of reconciling one table.
type DedupResult struct {
	Table   string
	Removed int64
	Err     error
}

// Dedup reconciles every job table without loading anything.
func Dedup(ctx context.Context, cfg Config, deps Deps, job config.Job) (out []DedupResult, err error) {
	deps = deps.withDefaults()
	sess, err := Open(ctx, cfg, deps, jobName(job))
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrConnection, "", "connect", err)
	}
	defer closeSession(ctx, sess, &err)

	var errs []error
	for _, tj := range job.Tables {
		n, err := reconcile.Reconcile(ctx, sess.DB, sess.Dialect, tj.Table)
		r := DedupResult{Table: tj.Table.String(), Removed: n}
		if err != nil {
			r.Err = etlerr.Wrap(etlerr.ErrReconciliation, r.Table, "reconcile", err)
			errs = append(errs, r.Err)
		} else {
			sess.log.Info("%s: %d duplicate row(s) removed", r.Table, n)
		}
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}

// closeSession releases sess and joins a close failure into *err.
func closeSession(ctx context.Context, sess *Session, err *error) {
	if cerr := sess.Close(ctx); cerr != nil {
		sess.log.Error("%v", cerr)
		*err = errors.Join(*err, etlerr.Wrap(etlerr.ErrConnection, "", "close", cerr))
	}
}
