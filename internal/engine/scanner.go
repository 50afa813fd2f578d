package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
)

// EventLister lists priced events.
type EventLister interface {
	Events(ctx context.Context) ([]source.Event, error)
}

// Offer base confidences before profile adjustments.
const (
	baseConfidence       = 82
	baseConfidenceTennis = 80
)

// ScanTip is the best offer of one event under a profile. Code and Label
// come from the market catalog; Code is empty for offers it does not know.
type ScanTip struct {
	ID         string
	Sport      model.Sport
	League     string
	Home       string
	Away       string
	Market     string // offer text as priced by the bookmaker
	Code       string
	Label      string
	Odds       float64
	Confidence int
	Kickoff    time.Time
	URL        string
}

// Scanner picks the best-scoring offer per odds API event.
type Scanner struct {
	events   EventLister
	catalog  *market.Catalog
	log      *slog.Logger
	warnOnce sync.Once
}

// NewScanner creates a Scanner. Offers are resolved against catalog.
func NewScanner(events EventLister, catalog *market.Catalog, log *slog.Logger) *Scanner {
	return &Scanner{events: events, catalog: catalog, log: log}
}

// Scan scores every offer of every event with profile, keeps the best offer
// per event and returns those at or above threshold, best first, at most
// limit of them. Tips for which skip returns true are left out before the
// limit applies. A missing API key yields no tips and no error.
func (s *Scanner) Scan(ctx context.Context, profile scoring.Profile, threshold, limit int, skip func(id string) bool) ([]ScanTip, error) {
	events, err := s.events.Events(ctx)
	if errors.Is(err, source.ErrMissingAPIKey) {
		s.warnOnce.Do(func() { s.log.Warn("odds api scan disabled", "reason", err) })
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var out []ScanTip
	for _, ev := range events {
		tip, ok := s.bestOffer(profile, ev)
		if !ok || tip.Confidence < threshold {
			continue
		}
		if skip != nil && skip(tip.ID) {
			continue
		}
		out = append(out, tip)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Scanner) bestOffer(profile scoring.Profile, ev source.Event) (ScanTip, bool) {
	base := baseConfidence
	if ev.Sport == model.SportTennis {
		base = baseConfidenceTennis
	}

	var best ScanTip
	found := false
	for _, o := range ev.Offers() {
		conf := scoring.Score(profile, scoring.Offer{
			Sport:          ev.Sport,
			League:         ev.League,
			Market:         o.Market,
			Odds:           o.Odds,
			BaseConfidence: float64(base),
		})
		if found && conf <= best.Confidence {
			continue
		}
		found = true
		code, label := s.resolve(o.Market, ev.Sport)
		id := code
		if id == "" {
			id = o.Market
		}
		best = ScanTip{
			ID:         fmt.Sprintf("%s|%s|%s|%s", ev.Sport, ev.Home, ev.Away, id),
			Sport:      ev.Sport,
			League:     ev.League,
			Home:       ev.Home,
			Away:       ev.Away,
			Market:     o.Market,
			Code:       code,
			Label:      label,
			Odds:       o.Odds,
			Confidence: conf,
			Kickoff:    ev.Commence,
			URL:        source.SearchURL(ev.Home, ev.Away),
		}
	}
	return best, found
}

func (s *Scanner) resolve(text string, sport model.Sport) (code, label string) {
	if s.catalog != nil {
		if def, ok := s.catalog.Find(text, sport); ok {
			return def.Code, def.Label
		}
	}
	return "", text
}
