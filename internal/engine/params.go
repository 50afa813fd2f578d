package engine

import (
	"time"

	"tipbot/internal/model"
)

// Params are the selection constants. They come from the tuning file.
type Params struct {
	Window            time.Duration
	PrimaryThreshold  int
	FallbackThreshold int // 0 disables the fallback pass
	MinOdds           float64
	MaxOdds           float64
	MaxAllow          float64
	MaxCount          int
	Cooldown          time.Duration // 0 disables
	KickoffOffset     time.Duration // assumed start of fixtures without a kickoff
	PerMarket         bool          // dedup per market instead of per fixture
}

// DefaultParams returns the built-in selection constants.
func DefaultParams() Params {
	return Params{
		Window:            8 * time.Hour,
		PrimaryThreshold:  85,
		FallbackThreshold: 75,
		MinOdds:           1.3,
		MaxOdds:           2.9,
		MaxAllow:          10.0,
		MaxCount:          10,
		KickoffOffset:     2 * time.Hour,
	}
}

// OddsPass accepts unknown odds, odds in [MinOdds, MaxOdds] and the
// exceptional range up to MaxAllow.
func (p Params) OddsPass(odds *float64) bool {
	if odds == nil {
		return true
	}
	return *odds >= p.MinOdds && *odds <= p.MaxAllow
}

// Preferred reports whether odds fall in the preferred band.
func (p Params) Preferred(odds *float64) bool {
	return odds != nil && *odds >= p.MinOdds && *odds <= p.MaxOdds
}

// WithinWindow reports whether kickoff lies in [now, now+window].
func WithinWindow(kickoff, now time.Time, window time.Duration) bool {
	return !kickoff.Before(now) && !kickoff.After(now.Add(window))
}

func fixtureKey(f model.MatchFacts, kickoff time.Time) string {
	return model.Slug(f.Home) + "|" + model.Slug(f.Away) + "|" + kickoff.UTC().Format("200601021504")
}
