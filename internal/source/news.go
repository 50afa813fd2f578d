package source

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tipbot/internal/model"
)

var injuryKeywords = []string{
	"injur", "ruled out", "sidelined", "doubtful", "suspended", "hamstring",
	"zraněn", "absence", "chybět", "mimo hru",
}

// InjuryNews counts recent team-news items about absences and fills
// MatchFacts.InjuriesAbs where no other source supplied it.
type InjuryNews struct {
	fetcher  *Fetcher
	feeds    []string
	lookback time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewInjuryNews creates an enricher reading the given RSS/Atom feeds.
func NewInjuryNews(f *Fetcher, feeds []string, log *slog.Logger) *InjuryNews {
	return &InjuryNews{
		fetcher:  f,
		feeds:    feeds,
		lookback: 72 * time.Hour,
		now:      time.Now,
		log:      log,
	}
}

// Enrich returns facts with injury counts filled in. Feed failures are
// logged and ignored.
func (n *InjuryNews) Enrich(ctx context.Context, facts []model.MatchFacts) []model.MatchFacts {
	if len(n.feeds) == 0 || len(facts) == 0 {
		return facts
	}
	items := n.items(ctx)
	if len(items) == 0 {
		return facts
	}

	out := make([]model.MatchFacts, len(facts))
	copy(out, facts)
	for i := range out {
		if out[i].InjuriesAbs != nil {
			continue
		}
		if c := countMentions(items, out[i].Home, out[i].Away); c > 0 {
			out[i].InjuriesAbs = model.Int(c)
		}
	}
	return out
}

func (n *InjuryNews) items(ctx context.Context) []string {
	cutoff := n.now().Add(-n.lookback)
	parser := gofeed.NewParser()

	var items []string
	for _, u := range n.feeds {
		body, err := n.fetcher.Get(ctx, u)
		if err != nil {
			n.log.Warn("fetch news feed", "url", u, "error", err)
			continue
		}
		feed, err := parser.ParseString(string(body))
		if err != nil {
			n.log.Warn("parse news feed", "url", u, "error", err)
			continue
		}
		for _, it := range feed.Items {
			if it.PublishedParsed != nil && it.PublishedParsed.Before(cutoff) {
				continue
			}
			text := strings.ToLower(it.Title + " " + it.Description)
			if !containsAnyFold(text, injuryKeywords) {
				continue
			}
			items = append(items, text)
		}
	}
	return items
}

func countMentions(items []string, home, away string) int {
	h := strings.ToLower(strings.TrimSpace(home))
	a := strings.ToLower(strings.TrimSpace(away))
	count := 0
	for _, it := range items {
		if (h != "" && strings.Contains(it, h)) || (a != "" && strings.Contains(it, a)) {
			count++
		}
	}
	return count
}
