package scoring

import (
	"fmt"
	"strings"

	"tipbot/internal/market"
	"tipbot/internal/model"
)

// Profile selects a rule set used to re-score bookmaker offers.
type Profile string

// Supported profiles.
const (
	ProfileFlamengo Profile = "flamengo"
	ProfileRobstark Profile = "robstark"
)

// Profiles lists the supported profiles.
var Profiles = []Profile{ProfileFlamengo, ProfileRobstark}

// ParseProfile resolves a profile name.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case ProfileFlamengo, ProfileRobstark:
		return p, nil
	}
	return "", fmt.Errorf("unknown profile %q, use: flamengo, robstark", s)
}

// Offer is a single priced market outcome to be scored by a profile.
type Offer struct {
	Sport          model.Sport
	League         string
	Market         string
	Odds           float64
	BaseConfidence float64
}

// TopLeagues are league name fragments that earn the robstark bonus.
var TopLeagues = []string{
	"premier", "laliga", "bundes", "serie a", "ligue 1", "ucl", "uel",
	"atp", "wta", "nhl", "nba",
}

var lineMarketKeywords = []string{
	"over", "under", "gamy", "games", "handicap", "spread", "eh", "ah", "+", "-",
}

var inflatedLines = []string{"4.5", "5.5", "6.5", "7.5"}

// Score applies the profile's rules to an offer.
func Score(p Profile, o Offer) int {
	if p == ProfileRobstark {
		return Robstark(o)
	}
	return Flamengo(o)
}

// Flamengo favours value odds, line markets and the football specials.
func Flamengo(o Offer) int {
	conf := o.BaseConfidence
	flags := market.InferFlags(o.Sport, o.League, o.Market)
	m := strings.ToLower(o.Market)

	if o.Odds >= 1.50 && o.Odds <= 2.20 {
		conf += 5
	}
	if o.Odds < 1.50 {
		conf -= 8
	}
	if o.Odds >= 2.10 && o.Odds <= 3.50 {
		conf += 6
	} else if o.Odds > 3.50 {
		conf += 3
	}

	if anyIn(m, lineMarketKeywords) {
		conf += 4
	}

	if o.Sport == model.SportTennis && flags.WTA && flags.Under &&
		flags.LineNumber != nil && *flags.LineNumber < 20 {
		conf -= 12
	}

	if o.Sport == model.SportFootball {
		if flags.HalfTime {
			conf += 6
		}
		if flags.BTTS {
			conf += 5
		}
		if flags.Corners && flags.Over {
			conf += 5
		}
		if flags.Cards && flags.Over {
			conf += 5
		}
	}

	if o.Sport == model.SportBasketball && flags.Quarter && flags.Over {
		conf -= 3
	}
	if o.Sport == model.SportHockey && flags.FirstGoal {
		conf += 5
	}
	return Percent(conf)
}

// Robstark favours mid-range odds in top leagues and punishes long shots.
func Robstark(o Offer) int {
	conf := o.BaseConfidence
	league := strings.ToLower(o.League)
	m := strings.ToLower(o.Market)
	flags := market.InferFlags(o.Sport, league, m)

	if o.Odds >= 1.70 && o.Odds <= 2.40 {
		conf += 8
	}
	if anyIn(league, TopLeagues) {
		conf += 4
	}
	if o.Odds > 4.0 {
		conf -= 8
	}
	if strings.Contains(m, "over") && anyIn(m, inflatedLines) {
		conf -= 6
	}

	if flags.BTTS {
		conf += 3
	}
	if flags.HalfTime {
		conf += 3
	}
	if flags.Corners && flags.Over {
		conf += 3
	}
	if flags.Cards && flags.Over {
		conf += 3
	}
	return Percent(conf)
}

func anyIn(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
