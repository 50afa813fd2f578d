// Package scoring computes confidence percentages for candidate wagers.
//
// All scorers are pure functions. Inputs are not range checked; every
// result saturates into [0, 100].
package scoring

import "math"

// TeamStats is the per-side input of the half-time goal and BTTS scorers.
// Rates are percentages in 0..100.
type TeamStats struct {
	Form5Pts          float64
	GoalsForPG        float64
	GoalsAgainstPG    float64
	FirstHalfGoalRate float64
	BTTSRate          float64
	KeyInjuries       int
	HomeAdvantage     bool
}

// H2H carries head-to-head rates. Zero values mean a neutral 50%.
type H2H struct {
	FirstHalfRate float64
	BTTSRate      float64
}

func (h H2H) firstHalf() float64 {
	if h.FirstHalfRate == 0 {
		return 50
	}
	return h.FirstHalfRate
}

func (h H2H) btts() float64 {
	if h.BTTSRate == 0 {
		return 50
	}
	return h.BTTSRate
}

// GoalBeforeHalfTime scores a goal in the first half of the match.
func GoalBeforeHalfTime(home, away TeamStats, h2hFirstHalfRate float64) int {
	base := 50.0
	base += (home.FirstHalfGoalRate + away.FirstHalfGoalRate - 100) * 0.25
	base += (home.GoalsForPG + away.GoalsForPG - 2.4) * 6
	base += (home.GoalsAgainstPG + away.GoalsAgainstPG - 2.2) * 4
	base += (h2hFirstHalfRate - 50) * 0.2
	if home.HomeAdvantage {
		base += 4
	}
	base -= float64(home.KeyInjuries+away.KeyInjuries) * 1.5
	return Percent(base)
}

// BothTeamsScore scores both sides finding the net.
func BothTeamsScore(home, away TeamStats, h2hBTTSRate float64) int {
	base := 45.0
	base += (home.GoalsForPG + away.GoalsForPG - 2.6) * 7
	base -= math.Abs(home.Form5Pts-away.Form5Pts) * 1.2
	base += (home.BTTSRate + away.BTTSRate - 100) * 0.35
	base += (h2hBTTSRate - 50) * 0.25
	return Percent(base)
}

// Percent clamps x into [0, 100] and rounds half away from zero.
// NaN maps to 0.
func Percent(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	x = Clamp(x, 0, 100)
	// drop float noise so 84.49999999999999 rounds like 84.5
	x = math.Round(x*1e6) / 1e6
	return int(math.Round(x))
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
