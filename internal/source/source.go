// Package source implements the fixture and tip adapters and the HTTP
// fetcher they share. Every adapter degrades to an empty result on failure.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"tipbot/internal/model"
)

// Source produces normalized fixture records.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.MatchFacts, error)
}

// TipSource produces presentation-ready tips.
type TipSource interface {
	Name() string
	FetchTips(ctx context.Context) ([]model.Tip, error)
}

// Status is the outcome of one adapter call.
type Status string

// Adapter outcomes.
const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// Report describes the outcome of one adapter call.
type Report struct {
	Source   string
	Status   Status
	Count    int
	Err      error
	Duration time.Duration
}

// Collect calls src and turns any failure, including a panic, into a report
// with no records. Invalid records are dropped.
func Collect(ctx context.Context, src Source, log *slog.Logger) ([]model.MatchFacts, Report) {
	start := time.Now()
	rep := Report{Source: src.Name()}

	facts, err := safeFetch(ctx, src)
	rep.Duration = time.Since(start)
	if err != nil {
		log.Warn("source failed", "source", rep.Source, "error", err)
		rep.Status = StatusError
		rep.Err = err
		return nil, rep
	}

	valid := facts[:0]
	for _, f := range facts {
		if err := f.Validate(); err != nil {
			log.Debug("drop invalid record", "source", rep.Source, "error", err)
			continue
		}
		valid = append(valid, f)
	}

	rep.Count = len(valid)
	rep.Status = StatusOK
	if len(valid) == 0 {
		rep.Status = StatusEmpty
	}
	return valid, rep
}

// CollectTips is Collect for tip adapters.
func CollectTips(ctx context.Context, src TipSource, log *slog.Logger) ([]model.Tip, Report) {
	start := time.Now()
	rep := Report{Source: src.Name()}

	tips, err := safeFetchTips(ctx, src)
	rep.Duration = time.Since(start)
	if err != nil {
		log.Warn("tip source failed", "source", rep.Source, "error", err)
		rep.Status = StatusError
		rep.Err = err
		return nil, rep
	}
	rep.Count = len(tips)
	rep.Status = StatusOK
	if len(tips) == 0 {
		rep.Status = StatusEmpty
	}
	return tips, rep
}

func safeFetch(ctx context.Context, src Source) (facts []model.MatchFacts, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", src.Name(), r, debug.Stack())
		}
	}()
	return src.Fetch(ctx)
}

func safeFetchTips(ctx context.Context, src TipSource) (tips []model.Tip, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", src.Name(), r, debug.Stack())
		}
	}()
	return src.FetchTips(ctx)
}
