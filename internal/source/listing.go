package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tipbot/internal/model"
)

const listingHost = "https://m.tipsport.cz"

var categoryURLs = map[model.Sport]string{
	model.SportFootball:   listingHost + "/kurzy/fotbal-16",
	model.SportHockey:     listingHost + "/kurzy/ledni-hokej-23",
	model.SportTennis:     listingHost + "/kurzy/tenis-43",
	model.SportBasketball: listingHost + "/kurzy/basketbal-7",
	model.SportEsports:    listingHost + "/kurzy/esporty-188",
}

// CategoryURL returns the bookmaker listing page of a sport. Unknown sports
// fall back to football.
func CategoryURL(sport model.Sport) string {
	if u, ok := categoryURLs[sport]; ok {
		return u
	}
	return categoryURLs[model.SportFootball]
}

var matchPathRe = regexp.MustCompile(`/zapas/([^/]+)/(\d+).*`)

// StatsURL rewrites a match page URL to its statistics sub-page.
func StatsURL(matchURL string) string {
	return matchPathRe.ReplaceAllString(matchURL, "/zapas/$1/$2/statistiky")
}

// SearchURL returns the bookmaker search link for a fixture.
func SearchURL(home, away string) string {
	return "https://www.tipsport.cz/kurzy/vyhledavani?q=" + url.QueryEscape(home+" "+away)
}

// LeagueTiers assigns a fixed confidence by league prestige.
type LeagueTiers struct {
	Top        []string
	Second     []string
	TopConf    int
	SecondConf int
	OtherConf  int
}

// DefaultLeagueTiers returns the built-in tier table.
func DefaultLeagueTiers() LeagueTiers {
	return LeagueTiers{
		Top: []string{
			"premier league", "laliga", "la liga", "bundesliga", "serie a", "ligue 1",
			"champions", "europa", "nhl", "nba", "atp", "wta",
		},
		Second: []string{
			"championship", "2. bundesliga", "serie b", "ligue 2", "eredivisie", "primeira",
			"chance liga", "fortuna", "extraliga", "super lig", "mls",
		},
		TopConf:    82,
		SecondConf: 78,
		OtherConf:  72,
	}
}

// Confidence returns the tier confidence of a league name.
func (t LeagueTiers) Confidence(league string) int {
	l := strings.ToLower(league)
	for _, k := range t.Second {
		if strings.Contains(l, k) {
			return t.SecondConf
		}
	}
	for _, k := range t.Top {
		if strings.Contains(l, k) {
			return t.TopConf
		}
	}
	return t.OtherConf
}

// ListingSource scrapes the bookmaker's mobile category page. Its records
// carry the reference tag, so their kickoff times are authoritative.
type ListingSource struct {
	fetcher *Fetcher
	sport   model.Sport
	url     string
	tiers   LeagueTiers
	loc     *time.Location
	now     func() time.Time
}

// NewListingSource creates a listing scraper for one sport category.
func NewListingSource(f *Fetcher, sport model.Sport, loc *time.Location) *ListingSource {
	return &ListingSource{
		fetcher: f,
		sport:   sport,
		url:     CategoryURL(sport),
		tiers:   DefaultLeagueTiers(),
		loc:     loc,
		now:     time.Now,
	}
}

// SetTiers replaces the league confidence table.
func (s *ListingSource) SetTiers(t LeagueTiers) { s.tiers = t }

// Name returns the adapter name.
func (s *ListingSource) Name() string { return "tipsport_listing_" + string(s.sport) }

type listingEntry struct {
	League  string
	Home    string
	Away    string
	Kickoff time.Time
	URL     string
}

// Fetch returns the listed fixtures.
func (s *ListingSource) Fetch(ctx context.Context) ([]model.MatchFacts, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.MatchFacts, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.MatchFacts{
			Sport:   s.sport,
			League:  e.League,
			Home:    e.Home,
			Away:    e.Away,
			Kickoff: e.Kickoff,
			Notes:   model.TagReference,
		})
	}
	return out, nil
}

// FetchTips returns an early-goal tip per listed fixture, scored by league tier.
func (s *ListingSource) FetchTips(ctx context.Context) ([]model.Tip, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Tip, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.Tip{
			Match:      e.Home + " – " + e.Away,
			League:     e.League,
			Market:     earlyGoalLabel,
			Confidence: s.tiers.Confidence(e.League),
			Window:     GoalWindow(20),
			Reason:     "Listed by the bookmaker; confidence from league tier.",
			URL:        e.URL,
			Kickoff:    e.Kickoff,
		})
	}
	return out, nil
}

func (s *ListingSource) entries(ctx context.Context) ([]listingEntry, error) {
	body, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	now := s.now()
	league := ""
	var out []listingEntry
	doc.Find("h2, h3, a[href*='/kurzy/zapas/']").Each(func(_ int, n *goquery.Selection) {
		if goquery.NodeName(n) != "a" {
			league = cleanText(n.Text())
			return
		}
		if len(out) >= maxRowsPerPage {
			return
		}
		title := cleanText(n.Text())
		href, _ := n.Attr("href")
		if title == "" || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = listingHost + href
		}
		home, away, ok := SplitTeams(title)
		if !ok {
			return
		}
		e := listingEntry{League: league, Home: home, Away: away, URL: href}
		if h, m, ok := ParseClock(title); ok {
			e.Kickoff = KickoffAt(now, s.loc, h, m)
		}
		out = append(out, e)
	})
	return out, nil
}
