package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tipbot/internal/model"
)

func TestFileSourceFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("reference export", func(t *testing.T) {
		src := NewFileSource(FileConfig{Name: "ref", Path: "../../testdata/tipsport_today.json", Tag: model.TagReference})
		got, err := src.Fetch(ctx)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		want := []model.MatchFacts{
			{
				Sport: model.SportFootball, League: "LaLiga", Home: "Sevilla", Away: "Getafe",
				Kickoff: time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC), Notes: model.TagReference,
			},
			{
				Sport: model.SportFootball, League: "Premier League", Home: "Arsenal", Away: "Chelsea",
				Kickoff: time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC), Notes: model.TagReference,
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("enrichment fields", func(t *testing.T) {
		src := NewFileSource(FileConfig{Name: "sofa", Path: "../../testdata/sofascore_today.json", Tag: "sofascore"})
		got, err := src.Fetch(ctx)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		want := []model.MatchFacts{{
			Sport:       model.SportFootball,
			Home:        "Sevilla",
			Away:        "Getafe",
			Kickoff:     time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC),
			PaceHint:    model.Float(1.12),
			CardsAvg:    model.Float(5.1),
			CornersAvg:  model.Float(9.5),
			InjuriesAbs: model.Int(2),
			Notes:       "sofascore",
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("team statistics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stats.json")
		data := `[{"home": "Slavia", "away": "Plzen",
			"home_stats": {"form5_pts": 9, "gf_pg": 2.4, "ga_pg": 1.4, "first_half_goal_rate": 80, "btts_rate": 75},
			"away_stats": {"form5_pts": 8, "gf_pg": 1.8, "ga_pg": 1.6, "first_half_goal_rate": 75, "btts_rate": 70, "injuries_key": 1},
			"h2h_1h_rate": 70}]`
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := NewFileSource(FileConfig{Name: "stats", Path: path}).Fetch(ctx)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		want := []model.MatchFacts{{
			Sport:        model.SportFootball,
			Home:         "Slavia",
			Away:         "Plzen",
			HomeStats:    &model.SideStats{Form5Pts: 9, GoalsForPG: 2.4, GoalsAgainstPG: 1.4, FirstHalfGoalRate: 80, BTTSRate: 75},
			AwayStats:    &model.SideStats{Form5Pts: 8, GoalsForPG: 1.8, GoalsAgainstPG: 1.6, FirstHalfGoalRate: 75, BTTSRate: 70, KeyInjuries: 1},
			H2HFirstHalf: model.Float(70),
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing kickoff stays zero", func(t *testing.T) {
		src := NewFileSource(FileConfig{Name: "us", Path: "../../testdata/understat_today.json", Tag: "understat"})
		got, err := src.Fetch(ctx)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
		if !got[0].Kickoff.IsZero() {
			t.Errorf("kickoff = %v, want zero", got[0].Kickoff)
		}
		if diff := cmp.Diff(model.Float(2.3), got[0].XGSum); diff != "" {
			t.Errorf("xg mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing file is empty", func(t *testing.T) {
		src := NewFileSource(FileConfig{Name: "none", Path: filepath.Join(t.TempDir(), "absent.json")})
		got, err := src.Fetch(ctx)
		if err != nil || len(got) != 0 {
			t.Errorf("Fetch() = %v, %v; want empty, nil", got, err)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileSource(FileConfig{Name: "bad", Path: path}).Fetch(ctx); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestDefaultFileSources(t *testing.T) {
	var names []string
	for _, s := range DefaultFileSources("/data") {
		names = append(names, s.Name())
	}
	want := []string{"tipsport_fixtures", "fixtures", "understat", "sofascore"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
