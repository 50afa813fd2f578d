// Package engine turns gathered fixtures into ranked, verified tips.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
	"tipbot/internal/verify"
)

// Gatherer returns merged fixtures and per-source reports.
type Gatherer interface {
	Gather(ctx context.Context) ([]model.MatchFacts, []source.Report)
}

// Indexer loads the reference listing used for verification.
type Indexer interface {
	Index(ctx context.Context) *verify.Index
}

// Request holds the caller-supplied selection parameters. Zero values fall
// back to the selector's Params.
type Request struct {
	Sport         model.Sport
	MinConfidence int
	Window        time.Duration
	MaxCount      int
	Profile       scoring.Profile // re-scores candidates with known odds when set
}

// Result is the outcome of one selection. An empty result carries a reason
// for the user; it is not an error.
type Result struct {
	Picks        []model.Pick
	FallbackUsed bool
	Threshold    int
	Reason       string
	Fixtures     int // fixtures inside the window
	Unverified   bool
	FromStats    bool // picks come from team statistics, not the composite score
	Reports      []source.Report
}

// Empty reports whether nothing was selected.
func (r Result) Empty() bool { return len(r.Picks) == 0 }

// Selector runs the gather, filter, score, verify, dedup and rank pipeline.
type Selector struct {
	gatherer Gatherer
	verifier Indexer
	catalog  *market.Catalog
	params   Params
	now      func() time.Time
	log      *slog.Logger
}

// NewSelector creates a Selector. A nil verifier disables verification.
func NewSelector(g Gatherer, v Indexer, catalog *market.Catalog, params Params, log *slog.Logger) *Selector {
	return &Selector{
		gatherer: g,
		verifier: v,
		catalog:  catalog,
		params:   params,
		now:      time.Now,
		log:      log,
	}
}

// Params returns the selection constants.
func (s *Selector) Params() Params { return s.params }

type candidate struct {
	facts   model.MatchFacts
	tip     model.TipCandidate
	kickoff time.Time
}

// Select returns the best candidates for req. The fallback threshold is tried
// only when req uses the primary threshold; an explicit MinConfidence is
// strict. The error is non-nil only when ctx is cancelled.
func (s *Selector) Select(ctx context.Context, req Request) (Result, error) {
	strict := req.MinConfidence > 0 && req.MinConfidence != s.params.PrimaryThreshold
	req = s.withDefaults(req)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	facts, reports := s.gatherer.Gather(ctx)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("gather: %w", err)
	}
	res := Result{Reports: reports, Threshold: req.MinConfidence}

	now := s.now()
	var inWindow []model.MatchFacts
	for _, f := range facts {
		if req.Sport != "" && f.Sport != req.Sport {
			continue
		}
		if WithinWindow(f.KickoffOr(now, s.params.KickoffOffset), now, req.Window) {
			inWindow = append(inWindow, f)
		}
	}
	res.Fixtures = len(inWindow)
	if len(inWindow) == 0 {
		res.Reason = fmt.Sprintf("No fixtures start within the next %s.", hours(req.Window))
		return res, nil
	}

	scored := s.score(inWindow, now, req.Profile)

	var index *verify.Index
	pass := func(cands []candidate, threshold int) []candidate {
		var out []candidate
		for _, c := range cands {
			if c.tip.Confidence < threshold || !s.params.OddsPass(c.tip.EstOdds) {
				continue
			}
			if s.verifier != nil {
				if index == nil {
					index = s.verifier.Index(ctx)
				}
				if !index.Exists(c.facts.Home, c.facts.Away, c.kickoff) {
					continue
				}
			}
			out = append(out, c)
		}
		return out
	}

	selected := pass(scored, req.MinConfidence)
	fallback := s.params.FallbackThreshold
	if strict {
		fallback = 0
	}
	floor := req.MinConfidence
	if fallback > 0 && fallback < floor {
		floor = fallback
	}
	if len(selected) == 0 && floor < req.MinConfidence {
		selected = pass(scored, floor)
		if len(selected) > 0 {
			res.FallbackUsed = true
			res.Threshold = floor
		}
	}
	if len(selected) == 0 {
		selected = pass(s.statPicks(inWindow, now), floor)
		if len(selected) > 0 {
			res.FromStats = true
			res.FallbackUsed = floor < req.MinConfidence
			res.Threshold = floor
		}
	}
	if index != nil {
		res.Unverified = index.Skipped()
	}

	if len(selected) == 0 {
		res.Reason = fmt.Sprintf(
			"Nothing reached %d%% within %s at odds %.2f–%.2f (exceptionally up to %.1f).",
			floor, hours(req.Window), s.params.MinOdds, s.params.MaxOdds, s.params.MaxAllow,
		)
		return res, nil
	}

	selected = s.dedup(selected)
	rank(selected)
	selected = s.cooldown(selected)
	if len(selected) > req.MaxCount {
		selected = selected[:req.MaxCount]
	}

	for _, c := range selected {
		f := c.facts
		f.Kickoff = c.kickoff
		res.Picks = append(res.Picks, model.Pick{
			Facts: f,
			Tip:   c.tip,
			URL:   source.SearchURL(f.Home, f.Away),
		})
	}
	return res, nil
}

func (s *Selector) withDefaults(req Request) Request {
	if req.MinConfidence <= 0 {
		req.MinConfidence = s.params.PrimaryThreshold
	}
	if req.Window <= 0 {
		req.Window = s.params.Window
	}
	if req.MaxCount <= 0 {
		req.MaxCount = s.params.MaxCount
	}
	return req
}

// score proposes candidates per fixture. A fixture whose scoring panics is
// logged and skipped.
func (s *Selector) score(facts []model.MatchFacts, now time.Time, profile scoring.Profile) []candidate {
	var out []candidate
	for _, f := range facts {
		tips, err := s.propose(f)
		if err != nil {
			s.log.Error("score fixture", "match", f.Name(), "error", err)
			continue
		}
		ko := f.KickoffOr(now, s.params.KickoffOffset)
		for _, t := range tips {
			def, ok := s.catalog.ByCode(t.MarketCode, f.Sport)
			if !ok {
				s.log.Warn("unknown market code", "code", t.MarketCode, "sport", f.Sport)
				continue
			}
			if profile != "" && t.EstOdds != nil {
				t.Confidence = scoring.Score(profile, scoring.Offer{
					Sport:          f.Sport,
					League:         f.League,
					Market:         def.Label + " / " + def.DisplayName,
					Odds:           *t.EstOdds,
					BaseConfidence: float64(t.Confidence),
				})
			}
			t.Confidence = max(0, min(100, t.Confidence))
			out = append(out, candidate{facts: f, tip: t, kickoff: ko})
		}
	}
	return out
}

// statPicks is the second stage: SAFE/RISK picks from per-team statistics
// for the fixtures that carry them.
func (s *Selector) statPicks(facts []model.MatchFacts, now time.Time) []candidate {
	var out []candidate
	for _, f := range facts {
		if f.Sport != model.SportFootball {
			continue
		}
		ko := f.KickoffOr(now, s.params.KickoffOffset)
		for _, p := range scoring.FixturePicks(f) {
			out = append(out, candidate{
				facts: f,
				tip: model.TipCandidate{
					MarketCode: p.MarketCode,
					Selection:  p.Label,
					Rationale:  fmt.Sprintf("%s (%s)", p.Reason, p.Bucket),
					Confidence: p.Confidence,
				},
				kickoff: ko,
			})
		}
	}
	return out
}

func (s *Selector) propose(f model.MatchFacts) (tips []model.TipCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	if f.Sport != model.SportFootball {
		return nil, nil
	}
	return scoring.ProposeFootballTips(f), nil
}

// dedup keeps the highest-confidence candidate per fixture, or per fixture
// and market when PerMarket is set. Order of first appearance is kept.
func (s *Selector) dedup(cands []candidate) []candidate {
	best := make(map[string]int)
	var out []candidate
	for _, c := range cands {
		k := fixtureKey(c.facts, c.kickoff)
		if s.params.PerMarket {
			k += "|" + c.tip.MarketCode
		}
		i, ok := best[k]
		if !ok {
			best[k] = len(out)
			out = append(out, c)
			continue
		}
		if better(c, out[i]) {
			out[i] = c
		}
	}
	return out
}

// cooldown drops candidates kicking off within Cooldown of an already kept
// candidate from the same league.
func (s *Selector) cooldown(cands []candidate) []candidate {
	if s.params.Cooldown <= 0 {
		return cands
	}
	var out []candidate
	for _, c := range cands {
		clash := false
		for _, k := range out {
			d := c.kickoff.Sub(k.kickoff)
			if d < 0 {
				d = -d
			}
			if k.facts.League == c.facts.League && d < s.params.Cooldown {
				clash = true
				break
			}
		}
		if !clash {
			out = append(out, c)
		}
	}
	return out
}

func rank(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool { return better(cands[i], cands[j]) })
}

// better orders by confidence desc, odds asc (unknown last), kickoff asc.
func better(a, b candidate) bool {
	if a.tip.Confidence != b.tip.Confidence {
		return a.tip.Confidence > b.tip.Confidence
	}
	oa, ob := oddsOr(a.tip.EstOdds), oddsOr(b.tip.EstOdds)
	if oa != ob {
		return oa < ob
	}
	return a.kickoff.Before(b.kickoff)
}

func oddsOr(o *float64) float64 {
	if o == nil {
		return 99
	}
	return *o
}

func hours(d time.Duration) string {
	return fmt.Sprintf("%gh", d.Hours())
}
