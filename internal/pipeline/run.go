package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"csvwarehouse/internal/config"
	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/incremental"
	"csvwarehouse/internal/metrics"
	"csvwarehouse/internal/reconcile"
	"csvwarehouse/internal/records"
	"csvwarehouse/internal/schema"
	"csvwarehouse/internal/watermark"
)

// IncrementalReport describes one incremental extract of a table.
type IncrementalReport struct {
	Index     int
	Watermark time.Time
	Outcome   incremental.Kind
	Extracted int
	New       int
	Inserted  int64
	Removed   int64
}

// TableReport is the outcome of one table's pipeline.
type TableReport struct {
	Table       string
	State       State // last state reached
	Created     bool
	Original    int64 // rows inserted by the original load
	Incremental []IncrementalReport
	Err         error
}

// Report is the outcome of a run.
type Report struct {
	RunID    string
	Job      string
	Started  time.Time
	Finished time.Time
	Closed   bool // the session was released without error
	Tables   []TableReport
}

// OK reports whether every table reached Deduplicated.
func (r Report) OK() bool {
	if len(r.Tables) == 0 {
		return false
	}
	for _, t := range r.Tables {
		if t.State != Deduplicated || t.Err != nil {
			return false
		}
	}
	return true
}

// Run executes job. The returned error joins every table failure; a
// connection failure aborts before any table starts.
func Run(ctx context.Context, cfg Config, deps Deps, job config.Job) (Report, error) {
	deps = deps.withDefaults()
	rep := Report{Job: jobName(job), Started: deps.Now()}

	if issues := config.Validate(job); config.HasErrors(issues) {
		msgs := make([]string, 0, len(issues))
		for _, i := range issues {
			if i.Severity == config.SeverityError {
				msgs = append(msgs, i.Error())
			}
		}
		return rep, fmt.Errorf("invalid job %s: %s", rep.Job, strings.Join(msgs, "; "))
	}

	sess, err := Open(ctx, cfg, deps, rep.Job)
	if err != nil {
		for _, tj := range job.Tables {
			rep.Tables = append(rep.Tables, TableReport{Table: tj.Table.String(), State: Disconnected, Err: err})
		}
		rep.Finished = deps.Now()
		deps.Logger.Error("connect: %v", err)
		return rep, etlerr.Wrap(etlerr.ErrConnection, "", "connect", err)
	}
	rep.RunID = sess.RunID
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			deps.Logger.Error("%v", cerr)
		}
	}()
	deps.Logger.Info("run %s: job %s, %d table(s)", sess.RunID, rep.Job, len(job.Tables))

	var errs []error
	for _, tj := range job.Tables {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		tr := sess.RunTable(ctx, tj)
		rep.Tables = append(rep.Tables, tr)
		if tr.Err != nil {
			deps.Logger.Error("%v", tr.Err)
			errs = append(errs, tr.Err)
		}
	}

	if cerr := sess.Close(ctx); cerr != nil {
		errs = append(errs, etlerr.Wrap(etlerr.ErrConnection, "", "close", cerr))
	} else {
		rep.Closed = true
	}
	rep.Finished = deps.Now()
	deps.Logger.Info("run %s: finished in %s, %d of %d table(s) deduplicated",
		sess.RunID, rep.Finished.Sub(rep.Started).Truncate(time.Millisecond), countOK(rep), len(rep.Tables))
	return rep, errors.Join(errs...)
}

// RunTable drives one table through its states. It stops at the first
// failing transition and records the error in the report.
func (s *Session) RunTable(ctx context.Context, tj config.TableJob) TableReport {
	name := tj.Table.String()
	tr := TableReport{Table: name, State: Disconnected}

	advance := func(to State) {
		if !CanTransition(tr.State, to) {
			panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", tr.State, to))
		}
		tr.State = to
		s.log.Verbose("%s: %s", name, to)
	}
	step := func(to State, kind error, stage string, fn func() error) bool {
		start := s.now()
		err := fn()
		metrics.RecordStep(s.Job, name, to.String(), err, s.now().Sub(start))
		if err != nil {
			tr.Err = etlerr.Wrap(kindOf(err, kind), name, stage, err)
			return false
		}
		advance(to)
		return true
	}

	// Disconnected -> TableEnsured
	if !step(TableEnsured, etlerr.ErrSchema, "ensure table", func() error {
		out, err := schema.Ensure(ctx, s.DB, s.Dialect, tj.Table)
		if err == nil {
			tr.Created = out == schema.Created
			s.log.Info("%s: table %s", name, out)
		}
		return err
	}) {
		return tr
	}

	// TableEnsured -> OriginalLoaded: every row, no watermark. The timestamp
	// column is still checked: one bad cell would become the table's MAX and
	// block every later watermark.
	if !step(OriginalLoaded, etlerr.ErrData, "original load", func() error {
		rows, err := s.extract(ctx, tj, tj.Original)
		if err != nil {
			return err
		}
		if err := incremental.Check(rows, tj.Table.TimestampColumn, tj.Table.KeyColumns); err != nil {
			return err
		}
		if len(rows) == 0 {
			s.log.Info("%s: original extract is empty", name)
			return nil
		}
		n, err := s.loader.Load(ctx, s.DB, s.Dialect, tj.Table, rows)
		if err != nil {
			return err
		}
		tr.Original = n
		metrics.RecordRows(s.Job, name, "inserted", n)
		s.log.Info("%s: original data has been loaded (%d rows)", name, n)
		return nil
	}) {
		return tr
	}

	if len(tj.Incremental) == 0 {
		step(Deduplicated, etlerr.ErrReconciliation, "reconcile", func() error {
			removed, err := reconcile.Reconcile(ctx, s.DB, s.Dialect, tj.Table)
			metrics.RecordRows(s.Job, name, "deduplicated", removed)
			return err
		})
		return tr
	}

	for i, e := range tj.Incremental {
		ir := IncrementalReport{Index: i}
		ok := step(IncrementalLoaded, etlerr.ErrData, fmt.Sprintf("incremental #%d", i+1), func() error {
			return s.loadIncremental(ctx, tj, e, &ir)
		})
		tr.Incremental = append(tr.Incremental, ir)
		if !ok {
			return tr
		}
		if !step(Deduplicated, etlerr.ErrReconciliation, fmt.Sprintf("reconcile after incremental #%d", i+1), func() error {
			removed, err := reconcile.Reconcile(ctx, s.DB, s.Dialect, tj.Table)
			tr.Incremental[i].Removed = removed
			metrics.RecordRows(s.Job, name, "deduplicated", removed)
			return err
		}) {
			return tr
		}
	}
	return tr
}

// loadIncremental resolves the watermark, filters and loads one extract.
func (s *Session) loadIncremental(ctx context.Context, tj config.TableJob, e config.Extract, ir *IncrementalReport) error {
	name := tj.Table.String()
	w, err := watermark.Resolve(ctx, s.DB, s.Dialect, tj.Table)
	if err != nil {
		return err
	}
	ir.Watermark = w
	metrics.RecordWatermark(s.Job, name, w)
	s.log.Verbose("%s: watermark %s", name, w.Format(time.RFC3339))

	rows, err := s.extract(ctx, tj, e)
	if err != nil {
		return err
	}
	ir.Extracted = len(rows)

	res, err := incremental.Filter(rows, tj.Table.TimestampColumn, tj.Table.KeyColumns, w)
	if err != nil {
		return err
	}
	ir.Outcome = res.Kind
	if res.Kind == incremental.Empty {
		s.log.Info("%s: no new data to load", name)
		return nil
	}
	ir.New = len(res.Rows)
	metrics.RecordRows(s.Job, name, "filtered", int64(ir.Extracted-ir.New))

	n, err := s.loader.Load(ctx, s.DB, s.Dialect, tj.Table, res.Rows)
	if err != nil {
		return err
	}
	ir.Inserted = n
	metrics.RecordRows(s.Job, name, "inserted", n)
	s.log.Info("%s: incremental data has been loaded (%d of %d rows newer than %s)",
		name, n, ir.Extracted, w.Format(time.RFC3339))
	return nil
}

// extract reads every source of e and applies the table's transform.
func (s *Session) extract(ctx context.Context, tj config.TableJob, e config.Extract) ([]records.Record, error) {
	sets := make(map[string][]records.Record, len(tj.Sources))
	for src, path := range tj.Paths(e) {
		rows, err := s.reader.Read(ctx, tj.SourceFor(src, path))
		if err != nil {
			return nil, err
		}
		s.log.Verbose("%s: read %d row(s) from %s", tj.Table, len(rows), path)
		metrics.RecordRows(s.Job, tj.Table.String(), "extracted", int64(len(rows)))
		sets[src] = rows
	}
	return tj.Transformer().Apply(sets)
}

// kindOf picks the taxonomy kind an error already carries, else def.
func kindOf(err, def error) error {
	for _, k := range []error{etlerr.ErrConnection, etlerr.ErrSchema, etlerr.ErrData, etlerr.ErrLoad, etlerr.ErrReconciliation} {
		if errors.Is(err, k) {
			return k
		}
	}
	return def
}

func jobName(j config.Job) string {
	if strings.TrimSpace(j.Name) == "" {
		return "csvwarehouse"
	}
	return j.Name
}

func countOK(r Report) int {
	n := 0
	for _, t := range r.Tables {
		if t.State == Deduplicated && t.Err == nil {
			n++
		}
	}
	return n
}
