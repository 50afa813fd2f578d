package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"tipbot/internal/market"
	"tipbot/internal/model"
)

func TestFootballConfidence(t *testing.T) {
	tests := []struct {
		name  string
		facts model.MatchFacts
		want  int
	}{
		{name: "no data", facts: model.MatchFacts{}, want: 55},
		{name: "top xg tier", facts: model.MatchFacts{XGSum: model.Float(2.5)}, want: 67},
		{name: "second xg tier", facts: model.MatchFacts{XGSum: model.Float(2.1)}, want: 63},
		{name: "third xg tier", facts: model.MatchFacts{XGSum: model.Float(1.8)}, want: 59},
		{name: "low xg", facts: model.MatchFacts{XGSum: model.Float(1.5)}, want: 49},
		{
			name:  "form gap capped",
			facts: model.MatchFacts{HomeForm10: model.Float(8), AwayForm10: model.Float(3)},
			want:  61,
		},
		{
			name:  "negative form gap capped",
			facts: model.MatchFacts{HomeForm10: model.Float(1), AwayForm10: model.Float(9)},
			want:  49,
		},
		{
			name:  "fractional gap truncates",
			facts: model.MatchFacts{HomeForm10: model.Float(6), AwayForm10: model.Float(5.5)},
			want:  55,
		},
		{name: "one form missing", facts: model.MatchFacts{HomeForm10: model.Float(9)}, want: 55},
		{name: "fast pace", facts: model.MatchFacts{PaceHint: model.Float(1.1)}, want: 57},
		{name: "slow pace", facts: model.MatchFacts{PaceHint: model.Float(0.9)}, want: 55},
		{name: "two injuries", facts: model.MatchFacts{InjuriesAbs: model.Int(2)}, want: 51},
		{name: "injury penalty capped", facts: model.MatchFacts{InjuriesAbs: model.Int(7)}, want: 47},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FootballConfidence(tt.facts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FootballConfidence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type proposed struct {
	Code string
	Conf int
	Odds float64
}

func summarize(tips []model.TipCandidate) []proposed {
	var out []proposed
	for _, t := range tips {
		p := proposed{Code: t.MarketCode, Conf: t.Confidence}
		if t.EstOdds != nil {
			p.Odds = *t.EstOdds
		}
		out = append(out, p)
	}
	return out
}

func TestProposeFootballTips(t *testing.T) {
	tests := []struct {
		name  string
		facts model.MatchFacts
		want  []proposed
	}{
		{
			name:  "xg only",
			facts: model.MatchFacts{XGSum: model.Float(2.5)},
			want: []proposed{
				{Code: market.CodeHTGoal, Conf: 73, Odds: 1.40},
				{Code: market.CodeOver15, Conf: 71, Odds: 1.30},
				{Code: market.CodeOver25, Conf: 67, Odds: 1.80},
				{Code: market.CodeBTTS, Conf: 70, Odds: 1.7},
			},
		},
		{
			name:  "caps apply on strong fixture",
			facts: model.MatchFacts{XGSum: model.Float(3.0), HomeForm10: model.Float(9), AwayForm10: model.Float(3), PaceHint: model.Float(1.3)},
			want: []proposed{
				{Code: market.CodeHTGoal, Conf: 81, Odds: 1.40},
				{Code: market.CodeOver15, Conf: 79, Odds: 1.30},
				{Code: market.CodeOver25, Conf: 75, Odds: 1.80},
				{Code: market.CodeBTTS, Conf: 70, Odds: 1.7},
				{Code: market.CodeHomeOver15, Conf: 78, Odds: 1.8},
			},
		},
		{
			name:  "only over 2.5 between thresholds",
			facts: model.MatchFacts{XGSum: model.Float(2.0)},
			want:  []proposed{{Code: market.CodeOver25, Conf: 59, Odds: 1.80}},
		},
		{
			name:  "corners and cards",
			facts: model.MatchFacts{CornersAvg: model.Float(9.5), CardsAvg: model.Float(5.0)},
			want: []proposed{
				{Code: market.CodeCornersOver, Conf: 74, Odds: 1.8},
				{Code: market.CodeCardsOver, Conf: 72, Odds: 1.9},
			},
		},
		{
			name:  "below thresholds",
			facts: model.MatchFacts{XGSum: model.Float(1.2), CornersAvg: model.Float(8.9), CardsAvg: model.Float(4.7)},
			want:  nil,
		},
		{name: "no data", facts: model.MatchFacts{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(ProposeFootballTips(tt.facts))
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("ProposeFootballTips mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProposedCodesExistInCatalog(t *testing.T) {
	c := market.Default()
	facts := model.MatchFacts{
		XGSum:      model.Float(3),
		HomeForm10: model.Float(9),
		AwayForm10: model.Float(2),
		CornersAvg: model.Float(11),
		CardsAvg:   model.Float(6),
	}
	for _, tip := range ProposeFootballTips(facts) {
		if _, ok := c.ByCode(tip.MarketCode, model.SportFootball); !ok {
			t.Errorf("market code %s missing from catalog", tip.MarketCode)
		}
		if tip.Confidence < 0 || tip.Confidence > 100 {
			t.Errorf("confidence %d out of range", tip.Confidence)
		}
	}
}
