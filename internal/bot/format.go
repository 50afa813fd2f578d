package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"tipbot/internal/engine"
	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scheduler"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
)

// Stake is the model stake used for the payout line.
const Stake = 100

const kickoffLayout = "Mon 02.01. 15:04"

// FormatAlert formats an alert as a Telegram notification message.
func FormatAlert(a engine.Alert, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n\n", heading(a.Sport, a.League))
	b.WriteString(a.Match)
	fmt.Fprintf(&b, "\nKickoff: %s", kickoff(a.Kickoff, loc))
	fmt.Fprintf(&b, "\nMarket: %s", a.Market)
	if a.Selection != "" && a.Selection != a.Market {
		fmt.Fprintf(&b, "\nPick: %s", a.Selection)
	}
	if a.Odds != nil {
		fmt.Fprintf(&b, "\nOdds: %.2f", *a.Odds)
	}
	fmt.Fprintf(&b, "\nConfidence: %d%%", a.Confidence)
	if a.Odds != nil {
		b.WriteString("\n")
		b.WriteString(FormatPayout(*a.Odds))
	}
	if a.Fallback {
		b.WriteString("\n(fallback threshold)")
	}
	if a.Reason != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Reason)
	}
	if a.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(a.URL)
	}
	return b.String()
}

// Payout returns the gross return and the net profit of a Stake bet.
func Payout(odds float64) (gross, net decimal.Decimal) {
	stake := decimal.NewFromInt(Stake)
	gross = stake.Mul(decimal.NewFromFloat(odds)).Round(2)
	return gross, gross.Sub(stake)
}

// FormatPayout formats the payout line for odds.
func FormatPayout(odds float64) string {
	gross, net := Payout(odds)
	return fmt.Sprintf("Stake %d: payout %s, profit %s", Stake, gross.StringFixed(2), net.StringFixed(2))
}

// FormatResult formats a selection result for /top.
func FormatResult(res engine.Result, catalog *market.Catalog, loc *time.Location) string {
	if res.Empty() {
		if res.Reason == "" {
			return "No picks found."
		}
		return res.Reason
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d pick(s) from %d fixture(s), threshold %d%%", len(res.Picks), res.Fixtures, res.Threshold)
	if res.FallbackUsed {
		b.WriteString(" (fallback)")
	}
	b.WriteString(":\n")

	for i, p := range res.Picks {
		label := p.Tip.MarketCode
		if def, ok := catalog.ByCode(p.Tip.MarketCode, p.Facts.Sport); ok {
			label = def.Label
		}
		odds := "odds n/a"
		if p.Tip.EstOdds != nil {
			odds = fmt.Sprintf("@ %.2f", *p.Tip.EstOdds)
		}
		fmt.Fprintf(&b, "\n%d. %s [%s] %s\n", i+1, p.Facts.Name(), heading(p.Facts.Sport, p.Facts.League), kickoff(p.Facts.Kickoff, loc))
		fmt.Fprintf(&b, "   %s: %s %s, %d%%\n", label, p.Tip.Selection, odds, p.Tip.Confidence)
		if p.Tip.Rationale != "" {
			fmt.Fprintf(&b, "   %s\n", p.Tip.Rationale)
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "   %s\n", p.URL)
		}
	}

	if res.FromStats {
		b.WriteString("\nNo scored market qualified, picks come from team statistics.\n")
	}
	if res.Unverified {
		b.WriteString("\nReference listing unavailable, picks are unverified.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTips formats programme tips for /early.
func FormatTips(tips []model.Tip, loc *time.Location) string {
	if len(tips) == 0 {
		return "No early goal tips found."
	}
	var b strings.Builder
	b.WriteString("Early goal tips:\n")
	for i, t := range tips {
		league := t.League
		if league == "" {
			league = "n/a"
		}
		fmt.Fprintf(&b, "\n%d. %s [%s] %s\n", i+1, t.Match, league, kickoff(t.Kickoff, loc))
		fmt.Fprintf(&b, "   %s %s, %d%%\n", t.Market, t.Window, t.Confidence)
		if t.Reason != "" {
			fmt.Fprintf(&b, "   %s\n", t.Reason)
		}
		if t.URL != "" {
			fmt.Fprintf(&b, "   %s\n", t.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatusView is the data shown by /status.
type StatusView struct {
	Scheduler   scheduler.Status
	Profile     scoring.Profile
	Threshold   int
	Subscribers int
	Subscribed  bool
}

// FormatStatus formats the scheduler state relative to now.
func FormatStatus(v StatusView, now time.Time) string {
	st := v.Scheduler
	var b strings.Builder

	state := "active"
	if st.Paused {
		state = "paused"
	}
	if st.Running {
		state += ", scanning now"
	}
	fmt.Fprintf(&b, "Scheduler: %s (every %d min)\n", state, int(st.Interval.Minutes()))

	if st.LastRun.IsZero() {
		b.WriteString("Last scan: never\n")
	} else {
		fmt.Fprintf(&b, "Last scan: %s (took %s), %d sent\n",
			humanize.RelTime(st.LastRun, now, "ago", "from now"), st.LastDuration.Round(time.Millisecond), st.LastSent)
	}
	if st.LastErr != "" {
		fmt.Fprintf(&b, "Last error: %s\n", st.LastErr)
	}
	fmt.Fprintf(&b, "Scans: %s\n", humanize.Comma(int64(st.Cycles)))
	fmt.Fprintf(&b, "Profile: %s\n", v.Profile)
	fmt.Fprintf(&b, "Threshold: %d%%\n", v.Threshold)

	you := "you are not subscribed"
	if v.Subscribed {
		you = "you are subscribed"
	}
	fmt.Fprintf(&b, "Subscribers: %d (%s)", v.Subscribers, you)
	return b.String()
}

// FormatReports formats per-source results for /sources.
func FormatReports(reports []source.Report) string {
	if len(reports) == 0 {
		return "No scan has run yet."
	}
	var b strings.Builder
	b.WriteString("Sources:\n")
	for _, r := range reports {
		switch r.Status {
		case source.StatusError:
			fmt.Fprintf(&b, "\n%s: error (%v)", r.Source, r.Err)
		default:
			fmt.Fprintf(&b, "\n%s: %s, %d record(s), %s", r.Source, r.Status, r.Count, r.Duration.Round(time.Millisecond))
		}
	}
	return b.String()
}

func heading(sport model.Sport, league string) string {
	label := sportLabel(sport)
	if league == "" {
		return label
	}
	return label + " | " + league
}

func sportLabel(s model.Sport) string {
	switch s {
	case model.SportFootball:
		return "Football"
	case model.SportHockey:
		return "Hockey"
	case model.SportTennis:
		return "Tennis"
	case model.SportBasketball:
		return "Basketball"
	case model.SportEsports:
		return "Esports"
	case "":
		return "Tip"
	default:
		return string(s)
	}
}

func kickoff(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "time unknown"
	}
	return t.In(loc).Format(kickoffLayout)
}
