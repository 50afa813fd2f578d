package market

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tipbot/internal/model"
)

func TestInferFlags(t *testing.T) {
	tests := []struct {
		name   string
		sport  model.Sport
		league string
		market string
		want   Flags
	}{
		{
			name:   "wta under line",
			sport:  model.SportTennis,
			league: "WTA Cincinnati",
			market: "Under 19.5",
			want:   Flags{Under: true, WTA: true, LineNumber: model.Float(19.5), Sport: model.SportTennis},
		},
		{
			name:   "corners over",
			sport:  model.SportFootball,
			league: "Premier League",
			market: "Corners Over 9,5",
			want:   Flags{Corners: true, Over: true, LineNumber: model.Float(9.5), Sport: model.SportFootball},
		},
		{
			name:   "czech half-time btts",
			sport:  model.SportFootball,
			market: "1. poločas: oba dají gól",
			want:   Flags{HalfTime: true, BTTS: true, LineNumber: model.Float(1), Sport: model.SportFootball},
		},
		{
			name:   "hockey first goal",
			sport:  model.SportHockey,
			market: "First goal - Home",
			want:   Flags{FirstGoal: true, Sport: model.SportHockey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferFlags(tt.sport, tt.league, tt.market)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("InferFlags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFirstNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{in: "Over 2,5", want: model.Float(2.5)},
		{in: "-1.5 handicap", want: model.Float(-1.5)},
		{in: "Team A 12 games", want: model.Float(12)},
		{in: "no digits here", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseFirstNumber(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFirstNumber(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
