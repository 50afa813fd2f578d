// Package app wires the sources, selector and service from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tipbot/internal/aggregate"
	"tipbot/internal/config"
	"tipbot/internal/engine"
	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/source"
	"tipbot/internal/storage"
	"tipbot/internal/verify"
)

// Listing categories scraped on every cycle.
var listingSports = []model.Sport{
	model.SportFootball,
	model.SportHockey,
	model.SportTennis,
	model.SportBasketball,
}

// Pipeline holds the wired tip pipeline.
type Pipeline struct {
	Fetcher    *source.Fetcher
	Odds       *source.OddsAPI
	Aggregator *aggregate.Aggregator
	Verifier   *verify.Verifier
	Selector   *engine.Selector
	Service    *engine.Service
	Catalog    *market.Catalog
	TipSources []source.TipSource

	log *slog.Logger
}

// NewPipeline builds every adapter and the selection service. settings
// persists the active profile.
func NewPipeline(cfg *config.Config, settings engine.Settings, log *slog.Logger) *Pipeline {
	return newPipeline(cfg, settings, source.NewHTTPClient(), log)
}

func newPipeline(cfg *config.Config, settings engine.Settings, client source.HTTPClient, log *slog.Logger) *Pipeline {
	f := source.NewFetcher(client,
		source.WithRetries(2, 500*time.Millisecond),
		source.WithRateLimit(4, 2),
	)
	tuning := cfg.Tuning
	catalog := market.Default()

	var sources []source.Source
	for _, fs := range source.DefaultFileSources(cfg.DataDir) {
		sources = append(sources, fs)
	}

	var refs []verify.Reference
	for _, sp := range listingSports {
		ls := source.NewListingSource(f, sp, cfg.Location)
		ls.SetTiers(tuning.LeagueTiers())
		sources = append(sources, ls)
		if sp == model.SportFootball {
			refs = append(refs, ls)
		}
	}

	odds := source.NewOddsAPI(f, cfg.OddsAPIKey, cfg.OddsAPIBase, log)
	sources = append(sources, odds)

	aggOpts := []aggregate.Option{aggregate.WithTolerance(tuning.MergeTolerance())}
	if len(cfg.NewsFeeds) > 0 {
		aggOpts = append(aggOpts, aggregate.WithEnricher(source.NewInjuryNews(f, cfg.NewsFeeds, log)))
	}
	agg := aggregate.New(sources, log, aggOpts...)

	ver := verify.New(refs, log,
		verify.WithTolerance(tuning.VerifyTolerance()),
		verify.WithStrict(tuning.StrictVerification),
	)

	sel := engine.NewSelector(agg, ver, catalog, tuning.Params(), log)
	svc := engine.NewService(sel, engine.NewScanner(odds, catalog, log), catalog, settings,
		cfg.DefaultProfile, cfg.ConfidenceThreshold, log)

	return &Pipeline{
		Fetcher:    f,
		Odds:       odds,
		Aggregator: agg,
		Verifier:   ver,
		Selector:   sel,
		Service:    svc,
		Catalog:    catalog,
		TipSources: []source.TipSource{
			source.NewProgramSource(f, source.DefaultProgramURL, cfg.Location),
			source.NewTomorrowSource(f, source.DefaultTomorrowURL, cfg.Location),
		},
		log: log,
	}
}

// EarlyTips runs the programme scrapers.
func (p *Pipeline) EarlyTips(ctx context.Context, limit int) ([]model.Tip, []source.Report) {
	return aggregate.AnalyzeTips(ctx, p.TipSources, limit, p.log)
}

// OpenStore opens the configured storage backend.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendRedis:
		s, err := storage.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return s, nil
	default:
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		s, err := storage.NewSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return s, nil
	}
}
