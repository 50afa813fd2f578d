package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tipbot/internal/model"
)

// DefaultOddsAPIBase is the public odds API endpoint.
const DefaultOddsAPIBase = "https://api.the-odds-api.com/v4"

// ErrMissingAPIKey is returned when the odds API key is not configured.
var ErrMissingAPIKey = errors.New("odds api key is not configured")

// Market keys requested from the odds API, most complete set first.
var marketKeyPriority = []string{
	"h2h,totals,spreads,btts",
	"h2h,totals,spreads",
	"h2h,totals",
	"h2h",
}

var apiSports = []struct {
	Key   string
	Sport model.Sport
}{
	{Key: "soccer", Sport: model.SportFootball},
	{Key: "tennis", Sport: model.SportTennis},
	{Key: "icehockey", Sport: model.SportHockey},
	{Key: "basketball", Sport: model.SportBasketball},
}

// LeagueHints restricts football events to recognisable competitions.
var LeagueHints = []string{
	"premier", "laliga", "bundes", "serie a", "ligue 1", "champions", "europa",
	"atp", "wta", "nhl", "nba",
}

const maxEventsPerSport = 160

// Outcome is one priced selection.
type Outcome struct {
	Name  string
	Price float64
}

// Event is a fixture with its offered markets keyed by market type.
type Event struct {
	Sport    model.Sport
	Home     string
	Away     string
	League   string
	Commence time.Time
	Markets  map[string][]Outcome
}

// MarketOdds is one offer in scoring order.
type MarketOdds struct {
	Market string
	Odds   float64
}

// Offers flattens an event's markets: totals, spreads, btts, then h2h.
func (e Event) Offers() []MarketOdds {
	var out []MarketOdds
	for _, key := range []string{"totals", "spreads", "btts", "h2h"} {
		for _, o := range e.Markets[key] {
			out = append(out, MarketOdds{Market: o.Name, Odds: o.Price})
		}
	}
	return out
}

// OddsAPI reads upcoming events and prices from the odds API.
type OddsAPI struct {
	fetcher *Fetcher
	key     string
	base    string
	region  string
	log     *slog.Logger

	warnOnce sync.Once
}

// NewOddsAPI creates an odds API adapter. An empty key disables it.
func NewOddsAPI(f *Fetcher, apiKey, baseURL string, log *slog.Logger) *OddsAPI {
	if baseURL == "" {
		baseURL = DefaultOddsAPIBase
	}
	return &OddsAPI{
		fetcher: f,
		key:     apiKey,
		base:    strings.TrimRight(baseURL, "/"),
		region:  "eu",
		log:     log,
	}
}

// Name returns the adapter name.
func (o *OddsAPI) Name() string { return "oddsapi" }

// Configured reports whether an API key is present.
func (o *OddsAPI) Configured() bool { return o.key != "" }

type apiEvent struct {
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	SportTitle   string    `json:"sport_title"`
	CommenceTime time.Time `json:"commence_time"`
	Bookmakers   []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string   `json:"name"`
				Price float64  `json:"price"`
				Point *float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// Events downloads events for every supported sport. A sport that fails is
// logged and skipped.
func (o *OddsAPI) Events(ctx context.Context) ([]Event, error) {
	if !o.Configured() {
		return nil, ErrMissingAPIKey
	}

	var out []Event
	for _, sp := range apiSports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := o.sportEvents(ctx, sp.Key)
		if err != nil {
			o.log.Warn("odds api sport failed", "sport", sp.Key, "error", o.redact(err))
			continue
		}
		if len(raw) > maxEventsPerSport {
			raw = raw[:maxEventsPerSport]
		}
		for _, ev := range raw {
			if ev.HomeTeam == "" || ev.AwayTeam == "" {
				continue
			}
			if sp.Sport == model.SportFootball && !containsAnyFold(ev.SportTitle, LeagueHints) {
				continue
			}
			out = append(out, convertEvent(sp.Sport, ev))
		}
	}
	return out, nil
}

func (o *OddsAPI) sportEvents(ctx context.Context, sport string) ([]apiEvent, error) {
	var lastErr error
	for _, markets := range marketKeyPriority {
		q := url.Values{}
		q.Set("regions", o.region)
		q.Set("markets", markets)
		q.Set("oddsFormat", "decimal")
		q.Set("apiKey", o.key)
		u := fmt.Sprintf("%s/sports/%s/odds/?%s", o.base, sport, q.Encode())

		body, err := o.fetcher.Get(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		var events []apiEvent
		if err := json.Unmarshal(body, &events); err != nil {
			lastErr = fmt.Errorf("decode events: %w", err)
			continue
		}
		return events, nil
	}
	return nil, lastErr
}

func convertEvent(sport model.Sport, ev apiEvent) Event {
	e := Event{
		Sport:    sport,
		Home:     ev.HomeTeam,
		Away:     ev.AwayTeam,
		League:   ev.SportTitle,
		Commence: ev.CommenceTime.UTC(),
		Markets:  make(map[string][]Outcome),
	}
	for _, bk := range ev.Bookmakers {
		for _, mk := range bk.Markets {
			switch mk.Key {
			case "h2h", "totals", "spreads", "btts":
			default:
				continue
			}
			for _, oc := range mk.Outcomes {
				if oc.Price <= 0 {
					continue
				}
				name := oc.Name
				if oc.Point != nil && (mk.Key == "totals" || mk.Key == "spreads") {
					name += " " + strconv.FormatFloat(*oc.Point, 'f', -1, 64)
				}
				e.Markets[mk.Key] = append(e.Markets[mk.Key], Outcome{Name: name, Price: oc.Price})
			}
		}
	}
	return e
}

// Fetch exposes the events as fixture records for aggregation.
func (o *OddsAPI) Fetch(ctx context.Context) ([]model.MatchFacts, error) {
	events, err := o.Events(ctx)
	if errors.Is(err, ErrMissingAPIKey) {
		o.warnOnce.Do(func() { o.log.Warn("ODDS_API_KEY is not set, odds api source disabled") })
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.MatchFacts, 0, len(events))
	for _, e := range events {
		out = append(out, model.MatchFacts{
			Sport:   e.Sport,
			League:  e.League,
			Home:    e.Home,
			Away:    e.Away,
			Kickoff: e.Commence,
			Notes:   "oddsapi",
		})
	}
	return out, nil
}

// Ping checks that the API answers with the configured key.
func (o *OddsAPI) Ping(ctx context.Context) error {
	if !o.Configured() {
		return ErrMissingAPIKey
	}
	q := url.Values{}
	q.Set("apiKey", o.key)
	q.Set("all", "true")
	if _, err := o.fetcher.Get(ctx, o.base+"/sports?"+q.Encode()); err != nil {
		return fmt.Errorf("ping odds api: %w", o.redact(err))
	}
	return nil
}

func (o *OddsAPI) redact(err error) error {
	if err == nil || o.key == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), o.key, "***"))
}

func containsAnyFold(s string, subs []string) bool {
	l := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
