// Command ares looks up Czech companies in the ARES registry.
//
//	ares [flags] bas <id>...        basic records
//	ares [flags] res <id>...        legal-form (RES) records with tax ids
//	ares [flags] tax <id>...        VAT ids
//	ares [flags] find <name> [city] search by name
//	ares [flags] people <id>        officers from the court registry
//	ares [flags] serve              HTTP API
//
// Results are printed as JSON on stdout; logs go to stderr. Every flag has an
// environment fallback, see -help.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ares/internal/api"
	"ares/internal/ares"
	"ares/internal/cache"
	"ares/internal/config"
	"ares/internal/datasource/httpds"
	"ares/internal/justice"
	"ares/internal/logger"
	"ares/internal/metrics"
	"ares/internal/metrics/datadog"
	"ares/internal/metrics/prompush"

	// register all cache backends with the store factory.
	_ "ares/internal/cache/all"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	fs := flag.NewFlagSet("ares", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: ares [flags] bas|res|tax <id>... | find <name> [city] | people <id> | serve\n\nflags:\n")
		fs.PrintDefaults()
	}
	cfg := config.LoadFromArgs(fs, os.Getenv, os.Args[1:])
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(exitUsage)
	}

	os.Exit(run(cfg, fs.Arg(0), fs.Args()[1:]))
}

func run(cfg *config.Config, cmd string, args []string) int {
	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	flush := setupMetrics(cfg, log)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeCache, err := newClient(ctx, cfg, log)
	if err != nil {
		log.Error("cannot initialize registry client", zap.Error(err))
		return exitFailure
	}
	defer closeCache()

	if cmd == "serve" {
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		if err := api.New(client, log).Run(ctx, cfg.Listen); err != nil {
			log.Error("server stopped", zap.Error(err))
			return exitFailure
		}
		return exitOK
	}

	a := &app{
		lookup:  client,
		out:     os.Stdout,
		errOut:  os.Stderr,
		workers: cfg.Workers,
		xlsx:    cfg.XLSXPath,
		log:     log,
	}
	return a.dispatch(ctx, cmd, args)
}

// newClient wires the cache store, transport and court registry scraper.
func newClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ares.Client, func(), error) {
	storeCfg := cache.Config{
		Kind:  cfg.CacheBackend,
		Dir:   cfg.CacheDir,
		DSN:   cfg.CacheDSN,
		Table: cfg.CacheTable,
	}
	if storeCfg.Kind == "sqlite" && storeCfg.DSN == "" {
		storeCfg.DSN = filepath.Join(cfg.CacheDir, "ares-cache.db")
	}
	store, err := cache.Open(ctx, storeCfg)
	if err != nil {
		return nil, nil, err
	}
	rc := cache.New(store, cache.Options{Logger: log})

	transport := httpds.NewClient(httpds.Config{
		Timeout:            cfg.Timeout,
		MaxRetries:         cfg.MaxRetries,
		InsecureSkipVerify: cfg.InsecureTLS,
	})
	scraper, err := justice.NewScraper(
		justice.NewHTTPCrawler(transport, cfg.JusticeRPS),
		justice.ScraperOptions{Logger: log},
	)
	if err != nil {
		_ = rc.Close()
		return nil, nil, err
	}

	client := ares.NewClient(ares.Options{
		Fetcher:  transport,
		Cache:    rc,
		Balancer: cfg.Balancer,
		Debug:    cfg.Debug,
		Logger:   log,
		Officers: scraper,
		BaseURL:  cfg.BaseURL,
	})
	client.SetCacheStrategy(cfg.CacheStrategy)
	closeCache := func() {
		if err := rc.Close(); err != nil {
			log.Warn("closing cache", zap.Error(err))
		}
	}
	return client, closeCache, nil
}

// setupMetrics installs the configured backend and returns its flush hook.
// A backend that cannot be created leaves metrics disabled.
func setupMetrics(cfg *config.Config, log *zap.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.MetricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend("ares", cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: cfg.StatsdAddr, Namespace: "ares."})
	default:
		return func() {}
	}
	if err != nil {
		log.Warn("metrics disabled", zap.String("backend", cfg.MetricsBackend), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Debug("metrics enabled", zap.String("backend", cfg.MetricsBackend))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}
}
