package cli

import (
	"csvwarehouse/internal/metrics"
	"csvwarehouse/internal/metrics/datadog"
	"csvwarehouse/internal/metrics/prompush"
	"csvwarehouse/internal/pipeline"
)

// startMetrics installs the configured backend and returns the function
// that flushes it at the end of the run. A backend that fails to start
// leaves the nop backend in place.
func (a *app) startMetrics(job, runID string, log pipeline.Logger) (stop func()) {
	var (
		b   metrics.Backend
		err error
	)
	switch name := a.settings.MetricsBackend; name {
	case "prometheus":
		b, err = prompush.NewBackend(job, a.settings.PushgatewayURL, runID)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       a.settings.DogStatsDAddr,
			Namespace:  "csvwarehouse.",
			GlobalTags: []string{"job:" + job, "run_id:" + runID},
		})
	default:
		log.Verbose("metrics: disabled (backend=%q)", name)
		return func() {}
	}
	if err != nil {
		log.Error("metrics: failed to init %s backend: %v; using nop", a.settings.MetricsBackend, err)
		return func() {}
	}
	log.Verbose("metrics: backend=%s job=%s", a.settings.MetricsBackend, job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Error("metrics: flush error: %v", err)
		}
	}
}
