// Package aggregate merges fixture records from several sources into one
// record per fixture.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tipbot/internal/model"
	"tipbot/internal/source"
)

// DefaultTolerance is how far apart two kickoff times may be and still
// describe the same fixture.
const DefaultTolerance = 2 * time.Hour

// Enricher fills missing fields of already merged records.
type Enricher interface {
	Enrich(ctx context.Context, facts []model.MatchFacts) []model.MatchFacts
}

// Aggregator fetches every source concurrently and merges the results in
// registration order.
type Aggregator struct {
	sources   []source.Source
	enrichers []Enricher
	tolerance time.Duration
	parallel  int
	log       *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTolerance overrides the kickoff tolerance.
func WithTolerance(d time.Duration) Option {
	return func(a *Aggregator) { a.tolerance = d }
}

// WithEnricher appends an enrichment step run after the merge.
func WithEnricher(e Enricher) Option {
	return func(a *Aggregator) { a.enrichers = append(a.enrichers, e) }
}

// WithParallelism limits how many sources are fetched at once.
func WithParallelism(n int) Option {
	return func(a *Aggregator) { a.parallel = n }
}

// New creates an Aggregator over sources.
func New(sources []source.Source, log *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:   sources,
		tolerance: DefaultTolerance,
		parallel:  4,
		log:       log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources returns the registered source names.
func (a *Aggregator) Sources() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}

// Gather fetches all sources and returns the merged fixtures with one report
// per source. A failing source contributes nothing.
func (a *Aggregator) Gather(ctx context.Context) ([]model.MatchFacts, []source.Report) {
	results := make([][]model.MatchFacts, len(a.sources))
	reports := make([]source.Report, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	if a.parallel > 0 {
		g.SetLimit(a.parallel)
	}
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			results[i], reports[i] = source.Collect(gctx, src, a.log)
			return nil
		})
	}
	_ = g.Wait()

	var all []model.MatchFacts
	for _, r := range results {
		all = append(all, r...)
	}
	merged := Merge(all, a.tolerance)
	for _, e := range a.enrichers {
		merged = e.Enrich(ctx, merged)
	}

	a.log.Debug("sources gathered", "records", len(all), "fixtures", len(merged))
	return merged, reports
}

type groupKey struct {
	sport model.Sport
	home  string
	away  string
}

func keyOf(m model.MatchFacts) groupKey {
	return groupKey{sport: m.Sport, home: model.Slug(m.Home), away: model.Slug(m.Away)}
}

// Merge collapses records describing the same fixture. Records are grouped
// by sport and folded team names; within a group the first reference-tagged
// record is the base, every record whose kickoff lies within tolerance of
// the base is folded into it, and the rest form further fixtures.
func Merge(records []model.MatchFacts, tolerance time.Duration) []model.MatchFacts {
	var order []groupKey
	groups := make(map[groupKey][]model.MatchFacts)
	for _, r := range records {
		k := keyOf(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var out []model.MatchFacts
	for _, k := range order {
		rest := groups[k]
		for len(rest) > 0 {
			base := baseIndex(rest)
			merged := rest[base]
			var left []model.MatchFacts
			for i, r := range rest {
				if i == base {
					continue
				}
				if nearby(merged.Kickoff, r.Kickoff, tolerance) {
					merged = mergeInto(merged, r)
				} else {
					left = append(left, r)
				}
			}
			out = append(out, merged)
			rest = left
		}
	}
	return out
}

func baseIndex(recs []model.MatchFacts) int {
	for i, r := range recs {
		if r.HasTag(model.TagReference) {
			return i
		}
	}
	return 0
}

func nearby(a, b time.Time, tolerance time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// mergeInto fills the unknown fields of a from b. The kickoff of a
// reference record is never replaced.
func mergeInto(a, b model.MatchFacts) model.MatchFacts {
	if a.League == "" {
		a.League = b.League
	}
	if a.Home == "" {
		a.Home = b.Home
	}
	if a.Away == "" {
		a.Away = b.Away
	}
	switch {
	case a.Kickoff.IsZero():
		a.Kickoff = b.Kickoff
	case b.HasTag(model.TagReference) && !a.HasTag(model.TagReference) && !b.Kickoff.IsZero():
		a.Kickoff = b.Kickoff
	}
	a.HomeForm10 = firstFloat(a.HomeForm10, b.HomeForm10)
	a.AwayForm10 = firstFloat(a.AwayForm10, b.AwayForm10)
	a.XGSum = firstFloat(a.XGSum, b.XGSum)
	a.PaceHint = firstFloat(a.PaceHint, b.PaceHint)
	a.CardsAvg = firstFloat(a.CardsAvg, b.CardsAvg)
	a.CornersAvg = firstFloat(a.CornersAvg, b.CornersAvg)
	if a.InjuriesAbs == nil {
		a.InjuriesAbs = b.InjuriesAbs
	}
	if a.HomeStats == nil {
		a.HomeStats = b.HomeStats
	}
	if a.AwayStats == nil {
		a.AwayStats = b.AwayStats
	}
	a.H2HFirstHalf = firstFloat(a.H2HFirstHalf, b.H2HFirstHalf)
	a.H2HBTTS = firstFloat(a.H2HBTTS, b.H2HBTTS)
	a.Notes = joinNotes(a.Notes, b.Notes)
	return a
}

func firstFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func joinNotes(a, b string) string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range strings.Split(a+";"+b, ";") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return strings.Join(tags, ";")
}

// AnalyzeTips collects tips from the program sources, keeps the first tip
// per dedup key, orders them by kickoff then confidence and keeps at most
// max(1, limit). Tips without a kickoff sort last.
func AnalyzeTips(ctx context.Context, sources []source.TipSource, limit int, log *slog.Logger) ([]model.Tip, []source.Report) {
	results := make([][]model.Tip, len(sources))
	reports := make([]source.Report, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i], reports[i] = source.CollectTips(ctx, src, log)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var tips []model.Tip
	for _, r := range results {
		for _, t := range r {
			k := t.DedupKey()
			if seen[k] {
				continue
			}
			seen[k] = true
			tips = append(tips, t)
		}
	}

	sort.SliceStable(tips, func(i, j int) bool {
		ki, kj := tips[i].Kickoff, tips[j].Kickoff
		if ki.IsZero() != kj.IsZero() {
			return kj.IsZero()
		}
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return tips[i].Confidence > tips[j].Confidence
	})

	if n := max(1, limit); len(tips) > n {
		tips = tips[:n]
	}
	return tips, reports
}
