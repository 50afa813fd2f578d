package scoring

import (
	"math"

	"tipbot/internal/market"
	"tipbot/internal/model"
)

// FootballConfidence is the composite base confidence of a football fixture.
// Absent fields contribute nothing. The result is truncated toward zero.
func FootballConfidence(f model.MatchFacts) int {
	base := 55.0
	if f.HomeForm10 != nil && f.AwayForm10 != nil {
		base += Clamp((*f.HomeForm10-*f.AwayForm10)*1.5, -6, 6)
	}
	if f.XGSum != nil {
		switch xg := *f.XGSum; {
		case xg >= 2.4:
			base += 12
		case xg >= 2.1:
			base += 8
		case xg >= 1.8:
			base += 4
		default:
			base -= 6
		}
	}
	if f.PaceHint != nil && *f.PaceHint >= 1.1 {
		base += 2
	}
	if f.InjuriesAbs != nil && *f.InjuriesAbs != 0 {
		base -= math.Min(8, float64(*f.InjuriesAbs)*2)
	}
	if math.IsNaN(base) {
		return 0
	}
	return int(Clamp(base, 0, 100))
}

// ProposeFootballTips returns every market the fixture qualifies for.
// Candidates are not filtered by confidence here.
func ProposeFootballTips(f model.MatchFacts) []model.TipCandidate {
	conf := FootballConfidence(f)
	var tips []model.TipCandidate

	if atLeast(f.XGSum, 2.1) {
		tips = append(tips,
			model.TipCandidate{
				MarketCode: market.CodeHTGoal,
				Selection:  "Yes",
				Rationale:  "High xG; an early goal is common in games like this.",
				Confidence: min(94, conf+6),
				EstOdds:    model.Float(1.40),
			},
			model.TipCandidate{
				MarketCode: market.CodeOver15,
				Selection:  "Over 1.5",
				Rationale:  "Both sides attack well; the safe goals line.",
				Confidence: min(92, conf+4),
				EstOdds:    model.Float(1.30),
			},
		)
	}
	if atLeast(f.XGSum, 1.9) {
		tips = append(tips, model.TipCandidate{
			MarketCode: market.CodeOver25,
			Selection:  "Over 2.5",
			Rationale:  "Enough chances for three goals.",
			Confidence: conf,
			EstOdds:    model.Float(1.80),
		})
	}
	if atLeast(f.XGSum, 2.2) {
		tips = append(tips, model.TipCandidate{
			MarketCode: market.CodeBTTS,
			Selection:  "Yes",
			Rationale:  "Both sides carry above-average xG.",
			Confidence: max(70, conf-5),
			EstOdds:    model.Float(1.7),
		})
	}
	if f.HomeForm10 != nil && f.AwayForm10 != nil && *f.HomeForm10-*f.AwayForm10 >= 2.5 {
		tips = append(tips, model.TipCandidate{
			MarketCode: market.CodeHomeOver15,
			Selection:  "Home over 1.5",
			Rationale:  "Form gap plus home ground.",
			Confidence: max(78, conf-2),
			EstOdds:    model.Float(1.8),
		})
	}
	if atLeast(f.CornersAvg, 9.0) {
		tips = append(tips, model.TipCandidate{
			MarketCode: market.CodeCornersOver,
			Selection:  "Over (e.g. 9.5)",
			Rationale:  "Corner-heavy matchup; the average backs the trend.",
			Confidence: max(74, conf-6),
			EstOdds:    model.Float(1.8),
		})
	}
	if atLeast(f.CardsAvg, 4.8) {
		tips = append(tips, model.TipCandidate{
			MarketCode: market.CodeCardsOver,
			Selection:  "Over (e.g. 4.5)",
			Rationale:  "Physical league and opponents, plenty of fouls.",
			Confidence: max(72, conf-8),
			EstOdds:    model.Float(1.9),
		})
	}
	return tips
}

func atLeast(v *float64, threshold float64) bool {
	return v != nil && *v >= threshold
}
