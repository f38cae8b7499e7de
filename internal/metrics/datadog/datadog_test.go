package datadog

import (
	"reflect"
	"testing"

	"csvwarehouse/internal/metrics"
)

type sent struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	sent   []sent
	closed bool
}

func (f *fakeClient) Count(n string, v int64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"count", n, float64(v), tags})
	return nil
}
func (f *fakeClient) Histogram(n string, v float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"histogram", n, v, tags})
	return nil
}
func (f *fakeClient) Gauge(n string, v float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"gauge", n, v, tags})
	return nil
}
func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestNewBackendRequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("expected error for empty Addr")
	}
}

func TestBackendForwardsWithSortedTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter("etl_records_total", 3.7, metrics.Labels{"table": "orders", "kind": "inserted"})
	b.ObserveHistogram("etl_step_duration_seconds", 0.25, metrics.Labels{"step": "deduplicated"})
	b.SetGauge("etl_watermark_seconds", 100, nil)
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}

	want := []sent{
		{"count", "etl_records_total", 3, []string{"kind:inserted", "table:orders"}},
		{"histogram", "etl_step_duration_seconds", 0.25, []string{"step:deduplicated"}},
		{"gauge", "etl_watermark_seconds", 100, nil},
	}
	if !reflect.DeepEqual(fc.sent, want) {
		t.Fatalf("sent = %#v\nwant %#v", fc.sent, want)
	}
	if !fc.closed {
		t.Fatal("Flush did not close the client")
	}
}
