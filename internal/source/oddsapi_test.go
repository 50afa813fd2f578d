package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tipbot/internal/model"
)

func TestOddsAPIEvents(t *testing.T) {
	tr := &routeTransport{routes: map[string]string{
		"/sports/soccer/": loadFixture(t, "odds_soccer.json"),
	}}
	api := NewOddsAPI(testFetcher(tr), "secret", "https://odds.test/v4/", discardLogger())

	got, err := api.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}

	want := []Event{{
		Sport:    model.SportFootball,
		Home:     "Arsenal",
		Away:     "Chelsea",
		League:   "EPL Premier League",
		Commence: time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC),
		Markets: map[string][]Outcome{
			"h2h":    {{Name: "Arsenal", Price: 1.95}, {Name: "Chelsea", Price: 3.9}, {Name: "Draw", Price: 3.6}},
			"totals": {{Name: "Over 2.5", Price: 1.85}, {Name: "Under 2.5", Price: 1.98}},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	for _, u := range tr.urls {
		if !strings.HasPrefix(u, "https://odds.test/v4/sports/") {
			t.Errorf("unexpected url %q", u)
		}
	}
}

func TestEventOffersOrder(t *testing.T) {
	e := Event{Markets: map[string][]Outcome{
		"h2h":    {{Name: "Arsenal", Price: 1.95}, {Name: "Chelsea", Price: 3.9}, {Name: "Draw", Price: 3.6}},
		"totals": {{Name: "Over 2.5", Price: 1.85}, {Name: "Under 2.5", Price: 1.98}},
	}}

	want := []MarketOdds{
		{Market: "Over 2.5", Odds: 1.85},
		{Market: "Under 2.5", Odds: 1.98},
		{Market: "Arsenal", Odds: 1.95},
		{Market: "Chelsea", Odds: 3.9},
		{Market: "Draw", Odds: 3.6},
	}
	if diff := cmp.Diff(want, e.Offers()); diff != "" {
		t.Errorf("offers mismatch (-want +got):\n%s", diff)
	}
}

func TestOddsAPIMissingKey(t *testing.T) {
	tr := &routeTransport{}
	api := NewOddsAPI(testFetcher(tr), "", "", discardLogger())

	if _, err := api.Events(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Events error = %v, want ErrMissingAPIKey", err)
	}
	facts, err := api.Fetch(context.Background())
	if err != nil || facts != nil {
		t.Errorf("Fetch = %v, %v; want nil, nil", facts, err)
	}
	if err := api.Ping(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Ping error = %v, want ErrMissingAPIKey", err)
	}
	if len(tr.urls) != 0 {
		t.Errorf("made %d requests without a key", len(tr.urls))
	}
}

func TestOddsAPIFetchTagsRecords(t *testing.T) {
	tr := &routeTransport{routes: map[string]string{
		"/sports/soccer/": loadFixture(t, "odds_soccer.json"),
	}}
	api := NewOddsAPI(testFetcher(tr), "secret", "https://odds.test/v4", discardLogger())

	facts, err := api.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	if !facts[0].HasTag("oddsapi") {
		t.Errorf("notes = %q, want oddsapi tag", facts[0].Notes)
	}
}

func TestOddsAPIPing(t *testing.T) {
	tests := []struct {
		name    string
		routes  map[string]string
		wantErr bool
	}{
		{name: "ok", routes: map[string]string{"/sports?": "[]"}},
		{name: "rejected", routes: map[string]string{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &routeTransport{routes: tt.routes}
			api := NewOddsAPI(testFetcher(tr), "secret", "https://odds.test/v4", discardLogger())

			err := api.Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ping error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && strings.Contains(err.Error(), "secret") {
				t.Errorf("error leaks the api key: %v", err)
			}
		})
	}
}
