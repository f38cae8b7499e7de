// Package datadog sends run metrics to a DogStatsD agent.
package datadog

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"csvwarehouse/internal/metrics"
)

// Config holds DogStatsD settings.
type Config struct {
	// Addr is e.g. "127.0.0.1:8125" or "unix:///var/run/datadog/dsd.socket".
	Addr string
	// Namespace prefixes every metric name, e.g. "csvwarehouse.".
	Namespace string
	// GlobalTags apply to every metric, e.g. "env:prod".
	GlobalTags []string
}

// client is the subset of statsd.ClientInterface the backend uses.
type client interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Backend implements metrics.Backend over DogStatsD.
type Backend struct {
	client client
}

// NewBackend dials the agent.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}
	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter rounds delta down to an integer count.
func (b *Backend) IncCounter(name string, delta float64, l metrics.Labels) {
	_ = b.client.Count(name, int64(delta), tags(l), 1)
}

func (b *Backend) ObserveHistogram(name string, value float64, l metrics.Labels) {
	_ = b.client.Histogram(name, value, tags(l), 1)
}

func (b *Backend) SetGauge(name string, value float64, l metrics.Labels) {
	_ = b.client.Gauge(name, value, tags(l), 1)
}

// Flush closes the client, which drains its buffer. Call once at shutdown.
func (b *Backend) Flush() error { return b.client.Close() }

func tags(l metrics.Labels) []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for k, v := range l {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
