package source

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tipbot/internal/model"
)

// Default programme pages.
const (
	DefaultProgramURL  = "https://www.eurofotbal.cz/zapasy/"
	DefaultTomorrowURL = "https://footystats.org/cz/tomorrow/"
)

const (
	maxRowsPerPage = 160
	earlyGoalLabel = "Goal in the first half: yes (over 0.5 HT)"
)

var dayMonthRe = regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2})\.`)

// EarlyGoalConfidence maps a first-half scoring rate (0..1) and a pace hint
// to a confidence in [55, 95].
func EarlyGoalConfidence(rate, pace float64) int {
	base := 60 + 30*rate + 10*(pace-1.0)
	return int(math.Max(55, math.Min(95, math.Round(base))))
}

// GoalWindow renders the expected minute range of the first goal.
func GoalWindow(avgFirstGoalMin float64) string {
	m := int(avgFirstGoalMin)
	return fmt.Sprintf("%d'–%d'", max(6, m-8), min(44, m+8))
}

// ProgramSource scrapes a daily fixtures programme page grouped in day blocks.
type ProgramSource struct {
	fetcher *Fetcher
	url     string
	days    int
	loc     *time.Location
	now     func() time.Time
}

// NewProgramSource creates a scraper for today's and tomorrow's programme.
func NewProgramSource(f *Fetcher, url string, loc *time.Location) *ProgramSource {
	return &ProgramSource{fetcher: f, url: url, days: 2, loc: loc, now: time.Now}
}

// Name returns the adapter name.
func (s *ProgramSource) Name() string { return "eurofotbal" }

// FetchTips downloads the programme and emits an early-goal tip per fixture.
func (s *ProgramSource) FetchTips(ctx context.Context) ([]model.Tip, error) {
	body, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch programme: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse programme: %w", err)
	}

	today := dateOf(s.now().In(s.loc), s.loc)
	blocks := doc.Find("div#content div.matches")
	if blocks.Length() == 0 {
		blocks = doc.Selection
	}

	var out []model.Tip
	blocks.Each(func(_ int, blk *goquery.Selection) {
		head := strings.ToLower(cleanText(blk.Find("h2, h3").First().Text()))
		day := headingDate(head, today)
		if int(day.Sub(today).Hours()/24) >= s.days {
			return
		}

		blk.Find("div.match").EachWithBreak(func(i int, row *goquery.Selection) bool {
			if i >= maxRowsPerPage {
				return false
			}
			home := firstText(row, ".team.home", ".home", ".team-home")
			away := firstText(row, ".team.away", ".away", ".team-away")
			if home == "" || away == "" {
				return true
			}
			league := firstText(row, ".competition", ".league", ".tournament")
			if league == "" {
				league = "Football"
			}
			var ko time.Time
			if h, m, ok := ParseClock(firstText(row, ".time", ".kickoff", ".score")); ok {
				ko = time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, s.loc)
			}
			out = append(out, model.Tip{
				Match:      home + " – " + away,
				League:     league,
				Market:     earlyGoalLabel,
				Confidence: EarlyGoalConfidence(0.74, 1.10),
				Window:     GoalWindow(20),
				Reason:     "Programme listing: profile suits an early goal.",
				URL:        s.url,
				Kickoff:    ko,
			})
			return true
		})
	})
	return out, nil
}

// TomorrowSource scrapes a statistics site's "tomorrow" table.
type TomorrowSource struct {
	fetcher *Fetcher
	url     string
	loc     *time.Location
	now     func() time.Time
}

// NewTomorrowSource creates a scraper for tomorrow's fixture table.
func NewTomorrowSource(f *Fetcher, url string, loc *time.Location) *TomorrowSource {
	return &TomorrowSource{fetcher: f, url: url, loc: loc, now: time.Now}
}

// Name returns the adapter name.
func (s *TomorrowSource) Name() string { return "footystats" }

// FetchTips emits an early-goal tip for every "Home - Away" row. Rows
// without a time default to 18:00.
func (s *TomorrowSource) FetchTips(ctx context.Context) ([]model.Tip, error) {
	body, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch tomorrow table: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse tomorrow table: %w", err)
	}

	rows := doc.Find("table tr")
	if rows.Length() == 0 {
		rows = doc.Find(".match-row")
	}
	tomorrow := dateOf(s.now().In(s.loc), s.loc).AddDate(0, 0, 1)

	var out []model.Tip
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxRowsPerPage {
			return false
		}
		text := rowText(row)
		if !strings.Contains(text, " - ") {
			return true
		}
		home, away, ok := SplitTeams(text)
		if !ok {
			return true
		}
		h, m, ok := ParseClock(text)
		if !ok {
			h, m = 18, 0
		}
		out = append(out, model.Tip{
			Match:      home + " – " + away,
			League:     "FootyStats",
			Market:     earlyGoalLabel,
			Confidence: EarlyGoalConfidence(0.76, 1.15),
			Window:     GoalWindow(19),
			Reason:     "Tomorrow's data pick for a quick goal.",
			URL:        s.url,
			Kickoff:    time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), h, m, 0, 0, s.loc),
		})
		return true
	})
	return out, nil
}

func headingDate(head string, today time.Time) time.Time {
	switch {
	case strings.Contains(head, "zítra"), strings.Contains(head, "zitra"), strings.Contains(head, "tomorrow"):
		return today.AddDate(0, 0, 1)
	case strings.Contains(head, "dnes"), strings.Contains(head, "today"):
		return today
	}
	if m := dayMonthRe.FindStringSubmatch(head); m != nil {
		d, _ := strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		if d >= 1 && d <= 31 && mon >= 1 && mon <= 12 {
			return time.Date(today.Year(), time.Month(mon), d, 0, 0, 0, 0, today.Location())
		}
	}
	return today
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if n := s.Find(sel).First(); n.Length() > 0 {
			if t := cleanText(n.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}

func rowText(row *goquery.Selection) string {
	cells := row.Find("td, th")
	if cells.Length() == 0 {
		return cleanText(row.Text())
	}
	parts := cells.Map(func(_ int, c *goquery.Selection) string { return cleanText(c.Text()) })
	return strings.Join(parts, " ")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
