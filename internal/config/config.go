// Package config centralizes process configuration. Every tunable is a
// command-line flag whose default is seeded from an environment variable, so
// `-help` lists all knobs and deployments can stay flag-free.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-workers=4"})
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all process configuration. All fields are plain values so
// the struct can be copied and shared across goroutines after construction.
type Config struct {
	// Cache selects where lookup results are kept.
	CacheBackend  string // file, sqlite, postgres, mssql
	CacheDir      string // file backend root; sqlite file lives here too
	CacheDSN      string // database backends
	CacheTable    string
	CacheStrategy string // PHP date() layout of the cache bucket

	// Registry transport.
	BaseURL     string
	Balancer    string
	Debug       bool // keep raw payloads in the cache
	Timeout     time.Duration
	InsecureTLS bool
	MaxRetries  int
	JusticeRPS  float64 // court registry requests per second

	// Logging.
	LogLevel  string
	LogFormat string

	// Metrics.
	MetricsBackend string // none, pushgateway, datadog
	PushgatewayURL string
	StatsdAddr     string

	// Outer surfaces.
	Listen   string // HTTP API address for `serve`
	Workers  int    // parallel lookups in batch mode
	XLSXPath string // optional spreadsheet export of results
}

var (
	cacheBackends   = []string{"file", "sqlite", "postgres", "mssql"}
	metricsBackends = []string{"none", "pushgateway", "datadog"}
)

// LoadFromArgs builds a Config by defining flags on fs, seeding each flag's
// default from getenv, and then parsing args. Parse errors are handled by
// fs according to its ErrorHandling; positional arguments are left in
// fs.Args().
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	str := func(k, d string) string { return envString(getenv, k, d) }

	// Cache
	fs.StringVar(&cfg.CacheBackend, "cache_backend", str("ARES_CACHE_BACKEND", "file"), "Cache backend: file, sqlite, postgres or mssql")
	fs.StringVar(&cfg.CacheDir, "cache_dir", str("ARES_CACHE_DIR", os.TempDir()), "Cache root directory (file and sqlite backends)")
	fs.StringVar(&cfg.CacheDSN, "cache_dsn", getenv("ARES_CACHE_DSN"), "Cache DSN (postgres, mssql; sqlite file path)")
	fs.StringVar(&cfg.CacheTable, "cache_table", str("ARES_CACHE_TABLE", "ares_cache"), "Cache table (database backends)")
	fs.StringVar(&cfg.CacheStrategy, "cache_strategy", str("ARES_CACHE_STRATEGY", "YW"), "Cache bucket as a PHP date() layout")

	// Transport
	fs.StringVar(&cfg.BaseURL, "base_url", str("ARES_BASE_URL", "http://wwwinfo.mfcr.cz/cgi-bin/ares"), "ARES service root")
	fs.StringVar(&cfg.Balancer, "balancer", getenv("ARES_BALANCER"), "Route requests through this balancer URL")
	fs.BoolVar(&cfg.Debug, "debug", envBool(getenv, "ARES_DEBUG", false), "Store raw registry answers in the cache")
	fs.DurationVar(&cfg.Timeout, "timeout", envDuration(getenv, "ARES_TIMEOUT", 30*time.Second), "Per-request timeout")
	fs.BoolVar(&cfg.InsecureTLS, "insecure_tls", envBool(getenv, "ARES_INSECURE_TLS", true), "Skip TLS certificate verification")
	fs.IntVar(&cfg.MaxRetries, "max_retries", envInt(getenv, "ARES_MAX_RETRIES", 0), "Retries of failed requests")
	fs.Float64Var(&cfg.JusticeRPS, "justice_rps", envFloat(getenv, "JUSTICE_RPS", 1), "Court registry requests per second (<=0 disables the limit)")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log_level", str("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log_format", str("LOG_FORMAT", "console"), "Log format: console or json")

	// Metrics
	fs.StringVar(&cfg.MetricsBackend, "metrics_backend", str("METRICS_BACKEND", "none"), "Metrics backend: none, pushgateway or datadog")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", str("PUSHGATEWAY_URL", "http://localhost:9091"), "Prometheus Pushgateway URL")
	fs.StringVar(&cfg.StatsdAddr, "statsd_addr", str("STATSD_ADDR", "127.0.0.1:8125"), "DogStatsD address")

	// Surfaces
	fs.StringVar(&cfg.Listen, "listen", str("ARES_LISTEN", ":8080"), "HTTP API listen address")
	fs.IntVar(&cfg.Workers, "workers", envInt(getenv, "WORKERS", 4), "Parallel lookups in batch mode")
	fs.StringVar(&cfg.XLSXPath, "xlsx", getenv("ARES_XLSX"), "Also write results to this .xlsx file")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// Load is the production entry point: flag.CommandLine, os.Getenv and
// os.Args[1:].
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if !oneOf(c.CacheBackend, cacheBackends) {
		return fmt.Errorf("config: cache_backend %q must be one of %s", c.CacheBackend, strings.Join(cacheBackends, ", "))
	}
	if (c.CacheBackend == "postgres" || c.CacheBackend == "mssql") && c.CacheDSN == "" {
		return fmt.Errorf("config: cache_dsn is required for the %s cache backend", c.CacheBackend)
	}
	if !oneOf(c.MetricsBackend, metricsBackends) {
		return fmt.Errorf("config: metrics_backend %q must be one of %s", c.MetricsBackend, strings.Join(metricsBackends, ", "))
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// envString returns getenv(k), or d when it is empty.
func envString(getenv func(string) string, k, d string) string {
	if v := getenv(k); v != "" {
		return v
	}
	return d
}

// envInt parses getenv(k) as a decimal integer; unset or invalid values
// yield d.
func envInt(getenv func(string) string, k string, d int) int {
	if v := getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func envFloat(getenv func(string) string, k string, d float64) float64 {
	if v := getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func envDuration(getenv func(string) string, k string, d time.Duration) time.Duration {
	if v := getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}

// envBool accepts "1/0", "true/false", "yes/no" and "on/off",
// case-insensitive. Unset or unrecognized values yield d.
func envBool(getenv func(string) string, k string, d bool) bool {
	switch strings.ToLower(getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}
