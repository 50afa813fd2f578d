package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tipbot/internal/dedup"
	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
)

type stubEvents struct {
	events []source.Event
	err    error
}

func (s *stubEvents) Events(_ context.Context) ([]source.Event, error) { return s.events, s.err }

func testEvents() []source.Event {
	return []source.Event{
		{
			Sport: model.SportFootball, League: "EPL Premier League", Home: "Arsenal", Away: "Chelsea",
			Commence: testNow.Add(7 * time.Hour),
			Markets: map[string][]source.Outcome{
				"h2h":    {{Name: "Arsenal", Price: 1.95}, {Name: "Chelsea", Price: 3.9}, {Name: "Draw", Price: 3.6}},
				"totals": {{Name: "Over 2.5", Price: 1.85}, {Name: "Under 2.5", Price: 1.98}},
			},
		},
		{
			Sport: model.SportTennis, League: "WTA Tokyo", Home: "Osaka", Away: "Gauff",
			Commence: testNow.Add(3 * time.Hour),
			Markets: map[string][]source.Outcome{
				"totals": {{Name: "Under 18.5", Price: 1.80}},
				"h2h":    {{Name: "Osaka", Price: 2.5}},
			},
		},
	}
}

type scanRow struct {
	Match  string
	Market string
	Conf   int
}

func scanRows(tips []ScanTip) []scanRow {
	var out []scanRow
	for _, t := range tips {
		out = append(out, scanRow{Match: t.Home + " – " + t.Away, Market: t.Market, Conf: t.Confidence})
	}
	return out
}

func TestScannerScan(t *testing.T) {
	soccerID := "football|Arsenal|Chelsea|" + market.CodeOver25

	tests := []struct {
		name      string
		profile   scoring.Profile
		threshold int
		limit     int
		skip      func(string) bool
		want      []scanRow
	}{
		{
			name: "flamengo", profile: scoring.ProfileFlamengo, threshold: 85,
			want: []scanRow{
				{Match: "Arsenal – Chelsea", Market: "Over 2.5", Conf: 91},
				{Match: "Osaka – Gauff", Market: "Osaka", Conf: 86},
			},
		},
		{
			name: "threshold", profile: scoring.ProfileFlamengo, threshold: 88,
			want: []scanRow{{Match: "Arsenal – Chelsea", Market: "Over 2.5", Conf: 91}},
		},
		{
			name: "limit", profile: scoring.ProfileFlamengo, threshold: 85, limit: 1,
			want: []scanRow{{Match: "Arsenal – Chelsea", Market: "Over 2.5", Conf: 91}},
		},
		{
			name: "seen skipped", profile: scoring.ProfileFlamengo, threshold: 85, limit: 1,
			skip: func(id string) bool { return id == soccerID },
			want: []scanRow{{Match: "Osaka – Gauff", Market: "Osaka", Conf: 86}},
		},
		{
			name: "robstark", profile: scoring.ProfileRobstark, threshold: 93,
			want: []scanRow{{Match: "Arsenal – Chelsea", Market: "Over 2.5", Conf: 94}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(&stubEvents{events: testEvents()}, market.Default(), discardLogger())
			got, err := s.Scan(context.Background(), tt.profile, tt.threshold, tt.limit, tt.skip)
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			if diff := cmp.Diff(tt.want, scanRows(got)); diff != "" {
				t.Errorf("tips mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScannerTipFields(t *testing.T) {
	s := NewScanner(&stubEvents{events: testEvents()[:1]}, market.Default(), discardLogger())
	got, err := s.Scan(context.Background(), scoring.ProfileFlamengo, 0, 0, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []ScanTip{{
		ID:         "football|Arsenal|Chelsea|FT_OU_2_5",
		Sport:      model.SportFootball,
		League:     "EPL Premier League",
		Home:       "Arsenal",
		Away:       "Chelsea",
		Market:     "Over 2.5",
		Code:       market.CodeOver25,
		Label:      "Total goals over 2.5",
		Odds:       1.85,
		Confidence: 91,
		Kickoff:    testNow.Add(7 * time.Hour),
		URL:        "https://www.tipsport.cz/kurzy/vyhledavani?q=Arsenal+Chelsea",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tip mismatch (-want +got):\n%s", diff)
	}
}

func TestScannerErrors(t *testing.T) {
	s := NewScanner(&stubEvents{err: source.ErrMissingAPIKey}, market.Default(), discardLogger())
	got, err := s.Scan(context.Background(), scoring.ProfileFlamengo, 0, 0, nil)
	if err != nil || got != nil {
		t.Errorf("missing key: got %v, %v; want nil, nil", got, err)
	}

	down := errors.New("dial tcp: timeout")
	s = NewScanner(&stubEvents{err: down}, market.Default(), discardLogger())
	if _, err := s.Scan(context.Background(), scoring.ProfileFlamengo, 0, 0, nil); !errors.Is(err, down) {
		t.Errorf("error = %v, want %v", err, down)
	}
}

func TestScannerResolvesMarkets(t *testing.T) {
	tests := []struct {
		name      string
		sport     model.Sport
		offer     string
		wantID    string
		wantCode  string
		wantLabel string
	}{
		{
			name: "total goals", sport: model.SportFootball, offer: "Over 1.5",
			wantID: "football|A|B|FT_OU_1_5", wantCode: market.CodeOver15, wantLabel: "Total goals over 1.5",
		},
		{
			name: "btts", sport: model.SportFootball, offer: "BTTS Yes",
			wantID: "football|A|B|BTTS_YES", wantCode: market.CodeBTTS, wantLabel: "Both teams to score: yes",
		},
		{
			name: "unknown football offer", sport: model.SportFootball, offer: "Draw",
			wantID: "football|A|B|Draw", wantLabel: "Draw",
		},
		{
			name: "sport without catalog", sport: model.SportHockey, offer: "Over 5.5",
			wantID: "hockey|A|B|Over 5.5", wantLabel: "Over 5.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := source.Event{
				Sport: tt.sport, League: "Premier League", Home: "A", Away: "B", Commence: testNow.Add(time.Hour),
				Markets: map[string][]source.Outcome{"totals": {{Name: tt.offer, Price: 1.6}}},
			}
			s := NewScanner(&stubEvents{events: []source.Event{ev}}, market.Default(), discardLogger())
			got, err := s.Scan(context.Background(), scoring.ProfileFlamengo, 0, 0, nil)
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("got %d tips, want 1", len(got))
			}
			if got[0].ID != tt.wantID || got[0].Code != tt.wantCode || got[0].Label != tt.wantLabel {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)",
					got[0].ID, got[0].Code, got[0].Label, tt.wantID, tt.wantCode, tt.wantLabel)
			}

			a := scanAlert(got[0])
			key := tt.wantCode
			if key == "" {
				key = tt.offer
			}
			if want := dedup.Key("A – B", key, ev.Commence); a.Key != want {
				t.Errorf("alert key = %q, want %q", a.Key, want)
			}
			if a.Market != tt.wantLabel || a.Selection != tt.offer {
				t.Errorf("alert market/selection = %q/%q, want %q/%q", a.Market, a.Selection, tt.wantLabel, tt.offer)
			}
		})
	}
}
