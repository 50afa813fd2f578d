package scoring

import (
	"tipbot/internal/market"
	"tipbot/internal/model"
)

// Bucket classifies a pick by how confident the scorer is.
type Bucket string

// Pick buckets.
const (
	BucketSafe Bucket = "SAFE"
	BucketRisk Bucket = "RISK"
	BucketSkip Bucket = "SKIP"
)

// Bucket thresholds.
const (
	SafeThreshold = 80
	RiskThreshold = 70
)

// BucketFor returns the bucket of a confidence value.
func BucketFor(confidence int) Bucket {
	switch {
	case confidence >= SafeThreshold:
		return BucketSafe
	case confidence >= RiskThreshold:
		return BucketRisk
	default:
		return BucketSkip
	}
}

// StatPick is a pick computed from team statistics.
type StatPick struct {
	MarketCode string
	Label      string
	Confidence int
	Bucket     Bucket
	Reason     string
}

// MakePicks evaluates the half-time goal and BTTS markets for a fixture.
// The half-time pick is only emitted when it is safe; BTTS is emitted
// from the risk threshold upwards.
func MakePicks(home, away TeamStats, h2h H2H) []StatPick {
	var picks []StatPick

	if c := GoalBeforeHalfTime(home, away, h2h.firstHalf()); c >= SafeThreshold {
		picks = append(picks, StatPick{
			MarketCode: market.CodeHTGoal,
			Label:      "Over 0.5 goals in the first half",
			Confidence: c,
			Bucket:     BucketSafe,
			Reason:     "High first-half scoring rate on both sides, decent attack, head-to-head agrees.",
		})
	}

	if c := BothTeamsScore(home, away, h2h.btts()); c >= RiskThreshold {
		picks = append(picks, StatPick{
			MarketCode: market.CodeBTTS,
			Label:      "Both teams to score",
			Confidence: c,
			Bucket:     BucketFor(c),
			Reason:     "Both teams score regularly and both defences concede.",
		})
	}
	return picks
}

// FixturePicks runs MakePicks on a fixture's team statistics, the home side
// holding home advantage. Fixtures without both sides' statistics yield nil.
func FixturePicks(f model.MatchFacts) []StatPick {
	if f.HomeStats == nil || f.AwayStats == nil {
		return nil
	}
	var h2h H2H
	if f.H2HFirstHalf != nil {
		h2h.FirstHalfRate = *f.H2HFirstHalf
	}
	if f.H2HBTTS != nil {
		h2h.BTTSRate = *f.H2HBTTS
	}
	return MakePicks(teamStats(*f.HomeStats, true), teamStats(*f.AwayStats, false), h2h)
}

func teamStats(s model.SideStats, home bool) TeamStats {
	return TeamStats{
		Form5Pts:          s.Form5Pts,
		GoalsForPG:        s.GoalsForPG,
		GoalsAgainstPG:    s.GoalsAgainstPG,
		FirstHalfGoalRate: s.FirstHalfGoalRate,
		BTTSRate:          s.BTTSRate,
		KeyInjuries:       s.KeyInjuries,
		HomeAdvantage:     home,
	}
}
