// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Sport identifies the discipline a fixture belongs to.
type Sport string

// Supported sports.
const (
	SportFootball   Sport = "football"
	SportHockey     Sport = "hockey"
	SportTennis     Sport = "tennis"
	SportBasketball Sport = "basketball"
	SportEsports    Sport = "esports"
)

var sportAliases = map[string]Sport{
	"football":    SportFootball,
	"soccer":      SportFootball,
	"fotbal":      SportFootball,
	"hockey":      SportHockey,
	"icehockey":   SportHockey,
	"ice_hockey":  SportHockey,
	"ledni-hokej": SportHockey,
	"hokej":       SportHockey,
	"nhl":         SportHockey,
	"tennis":      SportTennis,
	"tenis":       SportTennis,
	"basketball":  SportBasketball,
	"basketbal":   SportBasketball,
	"basket":      SportBasketball,
	"nba":         SportBasketball,
	"esports":     SportEsports,
	"esport":      SportEsports,
	"csgo":        SportEsports,
}

// ParseSport resolves a sport name or alias. Unknown names return false.
func ParseSport(s string) (Sport, bool) {
	sp, ok := sportAliases[strings.ToLower(strings.TrimSpace(s))]
	return sp, ok
}

// TagReference marks records coming from the bookmaker listing.
// Its kickoff time wins over every other source during merge.
const TagReference = "tipsport"

// MatchFacts is the normalized statistical profile of one fixture.
// Nil pointer fields mean the value is unknown.
type MatchFacts struct {
	Sport   Sport
	League  string
	Home    string
	Away    string
	Kickoff time.Time // zero when unknown

	HomeForm10  *float64 // points-like form over the last ten games, 0..10
	AwayForm10  *float64
	XGSum       *float64 // combined expected goals per 90 of both sides
	PaceHint    *float64 // 1.0 is an average tempo
	CardsAvg    *float64
	CornersAvg  *float64
	InjuriesAbs *int

	HomeStats    *SideStats // season rates for the half-time goal and BTTS picks
	AwayStats    *SideStats
	H2HFirstHalf *float64 // % of head-to-head games with a first-half goal
	H2HBTTS      *float64

	Notes string // provenance tags joined with ";"
}

// SideStats are per-team rates. Rates are percentages in 0..100.
type SideStats struct {
	Form5Pts          float64
	GoalsForPG        float64
	GoalsAgainstPG    float64
	FirstHalfGoalRate float64
	BTTSRate          float64
	KeyInjuries       int
}

// Validate checks the record invariants: a sport and at least one side.
func (m MatchFacts) Validate() error {
	if m.Sport == "" {
		return fmt.Errorf("sport is required")
	}
	if strings.TrimSpace(m.Home) == "" && strings.TrimSpace(m.Away) == "" {
		return fmt.Errorf("home or away team is required")
	}
	return nil
}

// Name returns the display name of the fixture.
func (m MatchFacts) Name() string {
	return m.Home + " – " + m.Away
}

// HasTag reports whether the provenance notes contain tag.
func (m MatchFacts) HasTag(tag string) bool {
	for _, t := range strings.Split(m.Notes, ";") {
		if t == tag {
			return true
		}
	}
	return false
}

// KickoffOr returns the kickoff, or now+offset when the kickoff is unknown.
func (m MatchFacts) KickoffOr(now time.Time, offset time.Duration) time.Time {
	if m.Kickoff.IsZero() {
		return now.Add(offset)
	}
	return m.Kickoff
}

// TipCandidate is one suggested wager for a fixture.
type TipCandidate struct {
	MarketCode string
	Selection  string
	Rationale  string
	Confidence int      // 0..100
	EstOdds    *float64 // indicative decimal odds, nil when unknown
}

// Pick pairs a fixture with the candidate chosen for it.
type Pick struct {
	Facts MatchFacts
	Tip   TipCandidate
	URL   string
}

// OddsOr returns the estimated odds or def when unknown.
func (p Pick) OddsOr(def float64) float64 {
	if p.Tip.EstOdds == nil {
		return def
	}
	return *p.Tip.EstOdds
}

// Tip is a presentation-ready suggestion produced by the program scrapers.
type Tip struct {
	Match      string
	League     string
	Market     string
	Confidence int
	Window     string
	Reason     string
	Odds       *float64
	URL        string
	Kickoff    time.Time // zero when unknown
}

// DedupKey identifies a tip by lowercased match name and kickoff instant.
func (t Tip) DedupKey() string {
	ko := ""
	if !t.Kickoff.IsZero() {
		ko = t.Kickoff.UTC().Format(time.RFC3339)
	}
	return strings.ToLower(t.Match) + "|" + ko
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
