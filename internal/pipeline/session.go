// Package pipeline drives a load run: one warehouse session, then for each
// table ensure, original load, and per incremental extract watermark,
// filter, load and reconcile.
//
// Tables run sequentially on the calling goroutine. A failing table is
// reported and the run moves on to the next one; Run returns every table
// error joined so nothing fails silently. Committed work is never undone:
// a table that fails after its original load keeps those rows.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"csvwarehouse/internal/extract"
	"csvwarehouse/internal/loader"
	"csvwarehouse/internal/records"
	"csvwarehouse/internal/warehouse"
)

// Extractor reads one extract file.
type Extractor interface {
	Read(ctx context.Context, src extract.Source) ([]records.Record, error)
}

// Config carries the run-level settings.
type Config struct {
	Warehouse     warehouse.Config
	ProgressEvery int
}

// Deps are the replaceable collaborators of a run. Zero fields get
// production defaults.
type Deps struct {
	Connect func(ctx context.Context, cfg warehouse.Config) (warehouse.DB, warehouse.Dialect, error)
	Reader  Extractor
	Logger  Logger
	RunID   func() string
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Connect == nil {
		d.Connect = warehouse.Connect
	}
	if d.Reader == nil {
		d.Reader = extract.Reader{}
	}
	if d.Logger == nil {
		d.Logger = NewLogger(os.Stderr, false)
	}
	if d.RunID == nil {
		d.RunID = uuid.NewString
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Session is the per-run state handed to every stage. It owns the
// warehouse connection until Close.
type Session struct {
	RunID   string
	Job     string
	DB      warehouse.DB
	Dialect warehouse.Dialect

	log    Logger
	reader Extractor
	loader loader.Loader
	now    func() time.Time
	closed bool
}

// Open connects to the warehouse. The caller must Close the session.
func Open(ctx context.Context, cfg Config, deps Deps, job string) (*Session, error) {
	deps = deps.withDefaults()
	s := &Session{
		RunID:  deps.RunID(),
		Job:    job,
		log:    deps.Logger,
		reader: deps.Reader,
		loader: loader.Loader{ProgressEvery: cfg.ProgressEvery},
		now:    deps.Now,
	}
	db, d, err := deps.Connect(ctx, cfg.Warehouse)
	if err != nil {
		return nil, err
	}
	s.DB, s.Dialect = db, d
	s.log.Verbose("run %s: connected to %s", s.RunID, d.Name())
	return s, nil
}

// Close releases the connection. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.DB.Close(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("close warehouse session: %w", err)
	}
	s.log.Verbose("run %s: connection closed", s.RunID)
	return nil
}
