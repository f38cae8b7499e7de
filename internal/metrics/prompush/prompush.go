// Package prompush pushes run metrics to a Prometheus Pushgateway. A load
// run is a batch job with no scrape endpoint, so metrics are pushed once at
// the end via Flush.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"csvwarehouse/internal/metrics"
)

// Backend is a Pushgateway metrics.Backend. The job label of individual
// calls is carried by the Pushgateway grouping key instead.
type Backend struct {
	gatewayURL string
	jobName    string
	runID      string
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
	watermark     *prometheus.GaugeVec
}

// NewBackend builds a backend pushing to gatewayURL under jobName. runID,
// when set, becomes an extra grouping label so concurrent runs do not
// overwrite each other.
func NewBackend(jobName, gatewayURL, runID string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "csvwarehouse"
	}
	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		runID:      runID,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_step_total",
			Help: "Table state transitions attempted, by table, step and status.",
		}, []string{"table", "step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "etl_step_duration_seconds",
			Help:       "Duration of table state transitions in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"table", "step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_records_total",
			Help: "Rows per table and kind (extracted, filtered, inserted, deduplicated).",
		}, []string{"table", "kind"}),
		watermark: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "etl_watermark_seconds",
			Help: "Last resolved watermark per table, unix seconds.",
		}, []string{"table"}),
	}
	for name, c := range map[string]prometheus.Collector{
		"step counter":   b.stepCounter,
		"step summary":   b.stepDuration,
		"record counter": b.recordCounter,
		"watermark":      b.watermark,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, l metrics.Labels) {
	switch name {
	case "etl_step_total":
		b.stepCounter.WithLabelValues(l["table"], l["step"], l["status"]).Add(delta)
	case "etl_records_total":
		b.recordCounter.WithLabelValues(l["table"], l["kind"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, l metrics.Labels) {
	if name != "etl_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(l["table"], l["step"], l["status"]).Observe(value)
}

func (b *Backend) SetGauge(name string, value float64, l metrics.Labels) {
	if name != "etl_watermark_seconds" {
		return
	}
	b.watermark.WithLabelValues(l["table"]).Set(value)
}

// Flush pushes the registry, replacing the group's previous metrics.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	if b.runID != "" {
		p = p.Grouping("run_id", b.runID)
	}
	return p.Push()
}
