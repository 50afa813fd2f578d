package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tipbot/internal/dedup"
	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
)

// Alert is one notification-ready tip from either pipeline.
type Alert struct {
	Key        string // anti-duplicate key
	Sport      model.Sport
	League     string
	Match      string
	Market     string
	Selection  string
	Odds       *float64
	Confidence int
	Reason     string
	URL        string
	Kickoff    time.Time
	Fallback   bool
}

// Settings reads and writes persisted bot settings.
type Settings interface {
	GetSetting(ctx context.Context, name string) (string, bool, error)
	SetSetting(ctx context.Context, name, value string) error
}

// ProfileSetting is the settings key of the active profile.
const ProfileSetting = "profile"

// Service combines the selector and the odds API scanner behind the
// operations used by the bot and the scheduler.
type Service struct {
	selector       *Selector
	scanner        *Scanner
	catalog        *market.Catalog
	settings       Settings
	defaultProfile scoring.Profile
	threshold      int
	log            *slog.Logger

	mu          sync.Mutex
	lastReports []source.Report
}

// NewService creates a Service. scanner may be nil.
func NewService(sel *Selector, scanner *Scanner, catalog *market.Catalog, settings Settings,
	defaultProfile scoring.Profile, threshold int, log *slog.Logger,
) *Service {
	return &Service{
		selector:       sel,
		scanner:        scanner,
		catalog:        catalog,
		settings:       settings,
		defaultProfile: defaultProfile,
		threshold:      threshold,
		log:            log,
	}
}

// Profile returns the active profile.
func (s *Service) Profile(ctx context.Context) scoring.Profile {
	v, ok, err := s.settings.GetSetting(ctx, ProfileSetting)
	if err != nil {
		s.log.Warn("read profile setting", "error", err)
		return s.defaultProfile
	}
	if !ok {
		return s.defaultProfile
	}
	p, err := scoring.ParseProfile(v)
	if err != nil {
		return s.defaultProfile
	}
	return p
}

// SetProfile persists the active profile.
func (s *Service) SetProfile(ctx context.Context, p scoring.Profile) error {
	if err := s.settings.SetSetting(ctx, ProfileSetting, string(p)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Threshold returns the scan confidence threshold.
func (s *Service) Threshold() int { return s.threshold }

// Top runs the selector for an explicit request.
func (s *Service) Top(ctx context.Context, req Request) (Result, error) {
	ctx = source.WithCycle(ctx)
	res, err := s.selector.Select(ctx, req)
	if err != nil {
		return Result{}, err
	}
	s.setReports(res.Reports)
	return res, nil
}

// Alerts collects candidates from both pipelines, best first. Each upstream
// is downloaded once per call.
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	ctx = source.WithCycle(ctx)
	profile := s.Profile(ctx)
	var alerts []Alert

	if s.scanner != nil {
		tips, err := s.scanner.Scan(ctx, profile, s.threshold, 0, nil)
		if err != nil {
			s.log.Warn("odds api scan failed", "error", err)
		}
		for _, t := range tips {
			alerts = append(alerts, scanAlert(t))
		}
	}

	res, err := s.selector.Select(ctx, Request{MinConfidence: s.threshold, Profile: profile})
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	s.setReports(res.Reports)
	for _, p := range res.Picks {
		alerts = append(alerts, s.pickAlert(p, res.FallbackUsed))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Confidence != alerts[j].Confidence {
			return alerts[i].Confidence > alerts[j].Confidence
		}
		return alerts[i].Kickoff.Before(alerts[j].Kickoff)
	})
	return alerts, nil
}

// LastReports returns the per-source reports of the latest selection.
func (s *Service) LastReports() []source.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]source.Report, len(s.lastReports))
	copy(out, s.lastReports)
	return out
}

func (s *Service) setReports(r []source.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReports = r
}

func (s *Service) pickAlert(p model.Pick, fallback bool) Alert {
	label := p.Tip.MarketCode
	if def, ok := s.catalog.ByCode(p.Tip.MarketCode, p.Facts.Sport); ok {
		label = def.Label
	}
	return Alert{
		Key:        dedup.Key(p.Facts.Name(), p.Tip.MarketCode, p.Facts.Kickoff),
		Sport:      p.Facts.Sport,
		League:     p.Facts.League,
		Match:      p.Facts.Name(),
		Market:     label,
		Selection:  p.Tip.Selection,
		Odds:       p.Tip.EstOdds,
		Confidence: p.Tip.Confidence,
		Reason:     p.Tip.Rationale,
		URL:        p.URL,
		Kickoff:    p.Facts.Kickoff,
		Fallback:   fallback,
	}
}

func scanAlert(t ScanTip) Alert {
	match := t.Home + " – " + t.Away
	odds := t.Odds
	key := t.Code
	if key == "" {
		key = t.Market
	}
	return Alert{
		Key:        dedup.Key(match, key, t.Kickoff),
		Sport:      t.Sport,
		League:     t.League,
		Match:      match,
		Market:     t.Label,
		Selection:  t.Market,
		Odds:       &odds,
		Confidence: t.Confidence,
		Reason:     "Best priced offer for the active profile.",
		URL:        t.URL,
		Kickoff:    t.Kickoff,
	}
}
