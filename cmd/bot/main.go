package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tipbot/internal/app"
	"tipbot/internal/bot"
	"tipbot/internal/config"
	"tipbot/internal/dedup"
	"tipbot/internal/health"
	"tipbot/internal/metrics"
	"tipbot/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Error("open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	pipeline := app.NewPipeline(cfg, store, log)
	if !pipeline.Odds.Configured() {
		log.Warn("ODDS_API_KEY is not set, odds api scan disabled")
	}

	b, err := bot.New(cfg.TelegramBotToken, bot.Deps{
		Store:   store,
		Engine:  pipeline.Service,
		Catalog: pipeline.Catalog,
		Odds:    pipeline.Odds,
		Early:   pipeline.EarlyTips,
	}, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	sched := scheduler.New(scheduler.Config{
		Alerts:   pipeline.Service,
		Store:    store,
		Ledger:   dedup.NewLedger(store, cfg.Location),
		Sender:   b,
		Format:   b.FormatAlert,
		Metrics:  m,
		Interval: cfg.ScanInterval,
		TopN:     cfg.TopTipsPerScan,
		Location: cfg.Location,
	}, log)
	b.SetScheduler(sched)

	log.Info("starting bot",
		"store", cfg.StoreBackend,
		"interval", cfg.ScanInterval,
		"threshold", cfg.ConfidenceThreshold,
		"profile", cfg.DefaultProfile,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return health.Serve(ctx, cfg.HTTPAddr, health.NewRouter(sched.Status, m), log)
	})
	g.Go(func() error {
		b.Run(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
