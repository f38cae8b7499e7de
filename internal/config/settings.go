// Package config holds process settings and the job model.
//
// Settings come from command-line flags whose defaults are seeded from
// environment variables (and therefore from a .env file loaded at startup):
// an explicit flag beats the environment, which beats the built-in default.
//
// For tests, pass a private FlagSet and a map-backed getenv:
//
//	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
//	s := config.BindFlags(fs, func(k string) string { return env[k] })
//	_ = fs.Parse([]string{"--driver=sqlite"})
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Settings are the process-level knobs shared by every subcommand.
type Settings struct {
	Driver          string
	DSN             string
	JobFile         string
	ProgressEvery   int
	ConnectAttempts int
	Verbose         bool

	MetricsBackend string // none, prometheus or datadog
	PushgatewayURL string
	DogStatsDAddr  string
}

// BindFlags defines the shared flags on fs with environment-seeded defaults
// and returns the Settings they populate once fs is parsed.
func BindFlags(fs *pflag.FlagSet, getenv func(string) string) *Settings {
	s := &Settings{}
	env := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnv := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnv := func(k string, d bool) bool {
		switch strings.ToLower(getenv(k)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return d
	}

	fs.StringVar(&s.Driver, "driver", env("WAREHOUSE_DRIVER", "sqlserver"), "warehouse driver: sqlserver, postgres, sqlite or mysql")
	fs.StringVar(&s.DSN, "dsn", getenv("WAREHOUSE_DSN"), "warehouse connection string")
	fs.StringVar(&s.JobFile, "job", getenv("LOADER_JOB"), "job file (YAML or JSON); empty uses the built-in master_list job")
	fs.IntVar(&s.ProgressEvery, "batch-size", intEnv("LOADER_BATCH_SIZE", 5000), "rows between loader progress lines")
	fs.IntVar(&s.ConnectAttempts, "connect-attempts", intEnv("LOADER_CONNECT_ATTEMPTS", 3), "connection attempts before giving up")
	fs.BoolVarP(&s.Verbose, "verbose", "v", boolEnv("LOADER_VERBOSE", false), "verbose logging")
	fs.StringVar(&s.MetricsBackend, "metrics", env("METRICS_BACKEND", "none"), "metrics backend: none, prometheus or datadog")
	fs.StringVar(&s.PushgatewayURL, "pushgateway-url", getenv("PUSHGATEWAY_URL"), "Prometheus Pushgateway base URL")
	fs.StringVar(&s.DogStatsDAddr, "dogstatsd-addr", env("DOGSTATSD_ADDR", "127.0.0.1:8125"), "DogStatsD agent address")
	return s
}

// Check reports settings that cannot work together.
func (s *Settings) Check() error {
	if s.ProgressEvery <= 0 {
		return fmt.Errorf("batch-size must be > 0, got %d", s.ProgressEvery)
	}
	if s.ConnectAttempts <= 0 {
		return fmt.Errorf("connect-attempts must be > 0, got %d", s.ConnectAttempts)
	}
	switch s.MetricsBackend {
	case "", "none", "datadog":
	case "prometheus":
		if s.PushgatewayURL == "" {
			return fmt.Errorf("metrics=prometheus needs --pushgateway-url (PUSHGATEWAY_URL)")
		}
	default:
		return fmt.Errorf("unknown metrics backend %q", s.MetricsBackend)
	}
	return nil
}
