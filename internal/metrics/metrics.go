// Package metrics is a small backend-agnostic facade for run metrics.
//
// A no-op backend is installed by default so instrumentation is always safe
// to call; cmd/loader swaps in a Pushgateway or DogStatsD backend when
// configured. Metric names:
//
//   - etl_step_total{table,step,status}            counter
//   - etl_step_duration_seconds{table,step,status} summary / histogram
//   - etl_records_total{table,kind}                counter (extracted, filtered, inserted, deduplicated)
//   - etl_watermark_seconds{table}                 gauge (unix seconds)
package metrics

import (
	"sync"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface a metrics system implements.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error { return current().Flush() }

// RecordStep counts one state transition attempt of a table and its latency.
func RecordStep(job, table, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "table": table, "step": step, "status": status}
	b := current()
	b.IncCounter("etl_step_total", 1, lbls)
	b.ObserveHistogram("etl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows adds delta to the record counter of kind. Non-positive deltas
// are dropped.
func RecordRows(job, table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter("etl_records_total", float64(delta), Labels{"job": job, "table": table, "kind": kind})
}

// RecordWatermark publishes the resolved watermark of a table.
func RecordWatermark(job, table string, w time.Time) {
	current().SetGauge("etl_watermark_seconds", float64(w.Unix()), Labels{"job": job, "table": table})
}
