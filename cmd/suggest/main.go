// Command suggest prints the current best picks without starting the bot.
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

	"tipbot/internal/app"
	"tipbot/internal/bot"
	"tipbot/internal/config"
	"tipbot/internal/scoring"
	"tipbot/internal/storage"
)

func main() {
	var (
		args    = flag.String("top", "", "selection arguments: [sport] [min_confidence] [hours] [count]")
		profile = flag.String("profile", "", "scoring profile (flamengo|robstark)")
		early   = flag.Int("early", 0, "also print up to N early goal tips")
		sources = flag.Bool("sources", false, "print per-source results")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadWithoutToken()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	req, err := bot.ParseTopArgs(*args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	req.Profile = cfg.DefaultProfile
	if *profile != "" {
		if req.Profile, err = scoring.ParseProfile(*profile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelTimeout()

	p := app.NewPipeline(cfg, storage.NewMemory(), log)

	res, err := p.Service.Top(ctx, req)
	if err != nil {
		log.Error("select", "error", err)
		os.Exit(1)
	}
	fmt.Println(bot.FormatResult(res, p.Catalog, cfg.Location))

	if *early > 0 {
		tips, _ := p.EarlyTips(ctx, *early)
		fmt.Println()
		fmt.Println(bot.FormatTips(tips, cfg.Location))
	}
	if *sources {
		fmt.Println()
		fmt.Println(bot.FormatReports(res.Reports))
	}
}
