package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bangersure/twoupfeed/internal/parser/parsers/twoup"
	pkgconfig "github.com/bangersure/twoupfeed/internal/pkg/config"
	"github.com/bangersure/twoupfeed/internal/pkg/export"
	"github.com/bangersure/twoupfeed/internal/pkg/interfaces"
	"github.com/bangersure/twoupfeed/internal/pkg/logging"
	"github.com/bangersure/twoupfeed/internal/pkg/models"
	"github.com/bangersure/twoupfeed/internal/pkg/notify"
	"github.com/bangersure/twoupfeed/internal/pkg/status"
	"github.com/bangersure/twoupfeed/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

const (
	defaultInterval   = time.Minute
	defaultRetryDelay = 30 * time.Second
)

type cliConfig struct {
	configPath string
	once       bool
	runFor     time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Scraper failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.Setup(&appConfig.Logging, "scraper")
	slog.Info("Config loaded successfully")

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	sinks, err := buildSinks(appConfig)
	if err != nil {
		return err
	}
	defer func() {
		for _, sink := range sinks {
			_ = sink.Close()
		}
	}()

	parser := twoup.NewParser(appConfig, sinks...)

	if appConfig.Telegram.BotToken != "" {
		notifier, err := notify.NewTelegramNotifier(appConfig.Telegram.BotToken, appConfig.Telegram.ChatID)
		if err != nil {
			slog.Warn("Failed to initialize telegram notifier, continuing without it", "error", err)
		} else {
			parser.SetNotifier(notifier)
		}
	}

	store := status.NewStore()
	parser.SetRunHook(func(fixtures []models.FixtureRecord, stats twoup.RunStats, took time.Duration) {
		store.SetRun(fixtures, status.RunStats(stats), took)
	})
	if appConfig.Status.Port > 0 {
		status.Run(ctx, status.AddrFor(appConfig.Status.Port), store, appConfig.Status.ReadHeaderTimeout)
	}

	return runLoop(ctx, cfg, appConfig, parser, store)
}

// runLoop keeps the "one run, success or fatal error" contract: each
// cycle either completes or fails whole, and the loop decides when to
// try again.
func runLoop(ctx context.Context, cfg cliConfig, appConfig *pkgconfig.Config, parser interfaces.Parser, store *status.Store) error {
	interval := appConfig.Scraper.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	retryDelay := appConfig.Scraper.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	for run := 1; ; run++ {
		slog.Info("Starting scrape run", "run", run)
		err := parser.ParseOnce(ctx)
		if cfg.once {
			return err
		}

		delay := interval
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Scraper stopped")
				return nil
			}
			store.RecordFailure()
			slog.Error("Scrape run failed, will restart", "run", run, "error", err, "retry_in", retryDelay)
			delay = retryDelay
		} else {
			slog.Info("Scrape run complete", "run", run, "next_in", interval)
		}

		select {
		case <-ctx.Done():
			slog.Info("Scraper stopped")
			return nil
		case <-time.After(delay):
		}
	}
}

func buildSinks(cfg *pkgconfig.Config) ([]interfaces.FixtureStorage, error) {
	// The JSON snapshot writer is the primary sink; its failure fails
	// the run. Postgres and Redis are best-effort.
	sinks := []interfaces.FixtureStorage{export.NewWriter(cfg.Output.Path)}

	if cfg.Postgres.DSN != "" {
		pg, err := storage.NewPostgresSnapshotStorage(&cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres storage: %w", err)
		}
		sinks = append(sinks, pg)
	}
	if cfg.Redis.Addr != "" {
		cache, err := storage.NewRedisFixtureCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		sinks = append(sinks, cache)
	}
	return sinks, nil
}

func parseFlags() cliConfig {
	var cfg cliConfig

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.BoolVar(&cfg.once, "once", false, "Run a single scrape cycle and exit")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration (e.g. 10s, 1m). 0 = run until SIGINT/SIGTERM")
	flag.Parse()
	return cfg
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal, stopping scraper...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}
