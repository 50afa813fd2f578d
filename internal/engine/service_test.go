package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tipbot/internal/dedup"
	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scoring"
	"tipbot/internal/storage"
)

func newTestService(t *testing.T, facts []model.MatchFacts) *Service {
	t.Helper()
	sel := newTestSelector(facts, nil, testParams())
	scan := NewScanner(&stubEvents{events: testEvents()[:1]}, market.Default(), discardLogger())
	return NewService(sel, scan, market.Default(), storage.NewMemory(), scoring.ProfileFlamengo, 80, discardLogger())
}

func TestServiceProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	if got := s.Profile(ctx); got != scoring.ProfileFlamengo {
		t.Errorf("default Profile() = %s, want flamengo", got)
	}
	if err := s.SetProfile(ctx, scoring.ProfileRobstark); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	if got := s.Profile(ctx); got != scoring.ProfileRobstark {
		t.Errorf("Profile() = %s, want robstark", got)
	}
}

func TestServiceAlerts(t *testing.T) {
	ko := testNow.Add(time.Hour)
	s := newTestService(t, []model.MatchFacts{strong("Home FC", "Away FC", "Liga", ko)})

	alerts, err := s.Alerts(context.Background())
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}

	type row struct {
		Match  string
		Market string
		Conf   int
		Key    string
	}
	var got []row
	for _, a := range alerts {
		got = append(got, row{Match: a.Match, Market: a.Market, Conf: a.Confidence, Key: a.Key})
	}
	// Flamengo lifts the home team total (78 at 1.8) to 87 and the
	// over 2.5 offer (82 at 1.85) to 91.
	want := []row{
		{
			Match: "Arsenal – Chelsea", Market: "Total goals over 2.5", Conf: 91,
			Key: dedup.Key("Arsenal – Chelsea", market.CodeOver25, testNow.Add(7*time.Hour)),
		},
		{
			Match: "Home FC – Away FC", Market: "Home team goals over 1.5", Conf: 87,
			Key: dedup.Key("Home FC – Away FC", market.CodeHomeOver15, ko),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("alerts mismatch (-want +got):\n%s", diff)
	}
	if len(s.LastReports()) != 1 {
		t.Errorf("LastReports() = %d reports, want 1", len(s.LastReports()))
	}
}

func TestServiceTop(t *testing.T) {
	s := newTestService(t, []model.MatchFacts{strong("A", "B", "Liga", testNow.Add(time.Hour))})

	res, err := s.Top(context.Background(), Request{MinConfidence: 95})
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if !res.Empty() || res.Reason == "" {
		t.Errorf("want an empty result with a reason, got %+v", res)
	}
}
