package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"csvwarehouse/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewBackendRequiresURL(t *testing.T) {
	t.Parallel()
	if _, err := NewBackend("job", "", ""); err == nil {
		t.Fatal("expected error for empty gateway URL")
	}
	b, err := NewBackend("", "http://pushgateway:9091", "")
	if err != nil {
		t.Fatal(err)
	}
	if b.jobName != "csvwarehouse" {
		t.Fatalf("default job = %q", b.jobName)
	}
}

func TestBackendRoutesByName(t *testing.T) {
	t.Parallel()
	b, err := NewBackend("job", "http://pushgateway:9091", "")
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter("etl_step_total", 1, metrics.Labels{"table": "orders", "step": "deduplicated", "status": "success"})
	b.IncCounter("etl_records_total", 4, metrics.Labels{"table": "orders", "kind": "inserted"})
	b.IncCounter("unknown_metric", 9, nil)
	b.SetGauge("etl_watermark_seconds", 42, metrics.Labels{"table": "orders"})

	if v := counterValue(t, b.stepCounter.WithLabelValues("orders", "deduplicated", "success")); v != 1 {
		t.Fatalf("step counter = %v", v)
	}
	if v := counterValue(t, b.recordCounter.WithLabelValues("orders", "inserted")); v != 4 {
		t.Fatalf("record counter = %v", v)
	}
	m := &dto.Metric{}
	if err := b.watermark.WithLabelValues("orders").Write(m); err != nil {
		t.Fatal(err)
	}
	if m.GetGauge().GetValue() != 42 {
		t.Fatalf("gauge = %v", m.GetGauge().GetValue())
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("loader", srv.URL, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter("etl_records_total", 2, metrics.Labels{"table": "t", "kind": "extracted"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(path, "/job/loader") || !strings.Contains(path, "run_id/run-1") {
		t.Fatalf("push path = %q", path)
	}
	if !strings.Contains(body, "etl_records_total") {
		t.Fatal("pushed body lacks etl_records_total")
	}
}
