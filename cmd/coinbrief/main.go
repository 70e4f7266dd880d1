package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"coinbrief/internal/api"
	"coinbrief/internal/config"
	"coinbrief/internal/digest"
	"coinbrief/internal/feeds"
	"coinbrief/internal/prices"
	"coinbrief/internal/runner"
	"coinbrief/internal/storage"
	"coinbrief/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory")
	once := flag.Bool("once", false, "run one briefing cycle and exit")
	flag.Parse()

	// Credentials come from the environment; a .env file is a convenience,
	// not a requirement.
	_ = godotenv.Load()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Seen-article store is optional: without it every cycle starts from
	// scratch and repeats articles still inside the lookback window.
	var store *storage.Store
	if cfg.Storage.Deduplicate {
		if err := os.MkdirAll(*dataDir, 0o755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}

		db, err := storage.OpenDatabase(filepath.Join(*dataDir, "coinbrief.db"))
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := storage.RunMigrations(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		store = storage.NewStore(db)
	}

	r := runner.New(runner.Config{
		Sources: cfg.Sources,
		FeedOpts: feeds.Options{
			MaxItemsPerFeed: cfg.Feeds.MaxItemsPerFeed,
			Lookback:        time.Duration(cfg.Digest.LookbackHours) * time.Hour,
		},
		DigestOpts: digest.Options{
			Keywords:           cfg.Keywords,
			ImportantKeywords:  cfg.ImportantKeywords,
			SignaturePrefixLen: cfg.Digest.SignaturePrefixLen,
			Lookback:           time.Duration(cfg.Digest.LookbackHours) * time.Hour,
			MaxArticles:        cfg.Digest.MaxArticles,
		},
		Fetcher:   feeds.NewFetcher(time.Duration(cfg.Feeds.TimeoutSeconds) * time.Second),
		Store:     seenStore(store),
		Deliverer: newDeliverer(cfg),
		Prices:    priceSource(cfg),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if _, err := r.Run(ctx); err != nil {
			slog.Error("briefing run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Periodic schedule plus an optional immediate run.
	c := cron.New()
	spec := fmt.Sprintf("@every %dh", cfg.Scheduler.IntervalHours)
	if _, err := c.AddFunc(spec, func() {
		if _, err := r.Run(context.Background()); err != nil {
			slog.Error("scheduled briefing run failed", "error", err)
		}
	}); err != nil {
		slog.Error("failed to schedule briefing runs", "error", err)
		os.Exit(1)
	}
	c.Start()
	slog.Info("scheduler started", "interval_hours", cfg.Scheduler.IntervalHours)

	if cfg.Scheduler.RunAtStart {
		go func() {
			if _, err := r.Run(ctx); err != nil {
				slog.Error("initial briefing run failed", "error", err)
			}
		}()
	}

	// Local control API (localhost only).
	var srv *http.Server
	if cfg.Server.Enabled {
		srv = &http.Server{
			Addr:    fmt.Sprintf("localhost:%d", cfg.Server.Port),
			Handler: api.NewRouter(r, cfg.Sources),
		}
		go func() {
			slog.Info("control API listening", "addr", "http://"+srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("control API failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	cronCtx := c.Stop()
	<-cronCtx.Done()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("control API shutdown failed", "error", err)
		}
	}

	if store != nil && cfg.Storage.CleanupDays > 0 {
		maxAge := time.Duration(cfg.Storage.CleanupDays) * 24 * time.Hour
		removed, err := store.Cleanup(context.Background(), maxAge)
		if err != nil {
			slog.Error("failed to clean up seen articles", "error", err)
		} else if removed > 0 {
			slog.Info("cleaned up seen articles", "removed", removed)
		}
	}
}

// seenStore keeps the runner's nil check honest: a nil *storage.Store
// wrapped in the interface would not compare equal to nil.
func seenStore(store *storage.Store) runner.SeenStore {
	if store == nil {
		return nil
	}
	return store
}

// newDeliverer builds the Telegram client, or returns nil for dry-run
// mode when credentials are missing.
func newDeliverer(cfg *config.Config) runner.Deliverer {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		slog.Warn("telegram credentials not configured, running in dry-run mode")
		return nil
	}

	client, err := telegram.NewClient(telegram.Config{
		Token:            cfg.Telegram.Token,
		ChatID:           cfg.Telegram.ChatID,
		MaxMessageLength: cfg.Telegram.MaxMessageLength,
		RetryAttempts:    cfg.Telegram.RetryAttempts,
		RetryDelay:       time.Duration(cfg.Telegram.RetryDelaySeconds) * time.Second,
	})
	if err != nil {
		slog.Error("failed to create telegram client", "error", err)
		os.Exit(1)
	}
	return client
}

func priceSource(cfg *config.Config) runner.PriceSource {
	if !cfg.Prices.Enabled {
		return nil
	}
	return prices.NewClient("")
}
