package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"tipbot/internal/model"
	"tipbot/internal/source"
)

type stubRef struct {
	facts []model.MatchFacts
	err   error
}

func (s *stubRef) Name() string { return "reference" }

func (s *stubRef) Fetch(_ context.Context) ([]model.MatchFacts, error) {
	return s.facts, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var kickoff = time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)

func TestIndexExists(t *testing.T) {
	ref := &stubRef{facts: []model.MatchFacts{
		{Sport: model.SportFootball, Home: "Atlético Madrid", Away: "Getafe", Kickoff: kickoff},
		{Sport: model.SportFootball, Home: "Brno", Away: "Olomouc"},
	}}
	ix := New([]Reference{ref}, discardLogger()).Index(context.Background())

	tests := []struct {
		name    string
		home    string
		away    string
		kickoff time.Time
		want    bool
	}{
		{name: "exact", home: "Atlético Madrid", away: "Getafe", kickoff: kickoff, want: true},
		{name: "folded names", home: "atletico-madrid", away: "GETAFE", kickoff: kickoff, want: true},
		{name: "at tolerance", home: "Atletico Madrid", away: "Getafe", kickoff: kickoff.Add(30 * time.Minute), want: true},
		{name: "beyond tolerance", home: "Atletico Madrid", away: "Getafe", kickoff: kickoff.Add(31 * time.Minute), want: false},
		{name: "swapped sides", home: "Getafe", away: "Atletico Madrid", kickoff: kickoff, want: false},
		{name: "reference without time", home: "Brno", away: "Olomouc", kickoff: kickoff, want: true},
		{name: "not listed", home: "Arsenal", away: "Chelsea", kickoff: kickoff, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ix.Exists(tt.home, tt.away, tt.kickoff); got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndexUnavailableReference(t *testing.T) {
	tests := []struct {
		name        string
		strict      bool
		wantExists  bool
		wantSkipped bool
	}{
		{name: "fail open", strict: false, wantExists: true, wantSkipped: true},
		{name: "strict", strict: true, wantExists: false, wantSkipped: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := []Reference{&stubRef{err: errors.New("timeout")}, &stubRef{}}
			ix := New(refs, discardLogger(), WithStrict(tt.strict)).Index(context.Background())

			if got := ix.Exists("Arsenal", "Chelsea", kickoff); got != tt.wantExists {
				t.Errorf("Exists() = %v, want %v", got, tt.wantExists)
			}
			if got := ix.Skipped(); got != tt.wantSkipped {
				t.Errorf("Skipped() = %v, want %v", got, tt.wantSkipped)
			}
			if len(ix.Reports) != 2 || ix.Reports[0].Status != source.StatusError {
				t.Errorf("unexpected reports: %+v", ix.Reports)
			}
		})
	}
}

func TestIndexFileReference(t *testing.T) {
	ref := source.NewFileSource(source.FileConfig{Name: "tipsport", Path: "../../testdata/tipsport_today.json", Tag: model.TagReference})
	ix := New([]Reference{ref}, discardLogger(), WithTolerance(10*time.Minute)).Index(context.Background())

	if ix.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", ix.Size())
	}
	if !ix.Exists("Sevilla", "Getafe", kickoff.Add(10*time.Minute)) {
		t.Error("Sevilla – Getafe should be listed")
	}
	if ix.Exists("Sevilla", "Getafe", kickoff.Add(11*time.Minute)) {
		t.Error("kickoff outside tolerance should not match")
	}
}
