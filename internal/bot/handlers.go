package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tipbot/internal/scheduler"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
)

const selftestTimeout = 15 * time.Second

const settingFailed = "Could not save the setting, please try again later."

// fail replies with a fixed message and keeps the error in the log.
func (b *Bot) fail(chatID int64, text, op string, err error) {
	b.log.Error(op, "chat_id", chatID, "error", err)
	b.reply(chatID, text)
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	added, err := b.store.AddSubscriber(ctx, chatID)
	if err != nil {
		b.fail(chatID, "Failed to subscribe, please try again later.", "subscribe", err)
		return
	}

	status := "You are subscribed to tip notifications."
	if !added {
		status = "You are already subscribed."
	}
	b.reply(chatID, `Welcome to Tip Bot!

I watch today's fixtures and send the strongest betting tips as they appear.

`+status+`
/top — best picks right now
/stop — unsubscribe

Use /help for the full command reference.`)
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) {
	removed, err := b.store.RemoveSubscriber(ctx, chatID)
	if err != nil {
		b.fail(chatID, "Failed to unsubscribe, please try again later.", "unsubscribe", err)
		return
	}
	if !removed {
		b.reply(chatID, "You are not subscribed. Use /start to subscribe.")
		return
	}
	b.reply(chatID, "Unsubscribed. Use /start to subscribe again.")
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Notifications:
/start — subscribe to tips
/stop — unsubscribe
/tip — scan now and notify subscribers

Picks:
/top [sport] [minconf] [hours] [n] — best picks, e.g. /top football 80 6 5
/early [n] — early goal tips from the programme pages
/profile [flamengo|robstark] — show or set the scoring profile

Scheduler:
/status — scheduler state and last scan
/interval <min> — set scan interval (1-1440)
/pause — pause scheduled scans
/resume — resume scheduled scans

Diagnostics:
/sources — per-source results of the last scan
/selftest — check Telegram, odds API and storage`)
}

func (b *Bot) handleTip(ctx context.Context, chatID int64) {
	if b.sched == nil {
		b.reply(chatID, "Scanning is not available.")
		return
	}

	sent, err := b.sched.RunOnce(ctx)
	switch {
	case errors.Is(err, scheduler.ErrBusy):
		b.reply(chatID, "A scan is already running, try again in a moment.")
		return
	case err != nil:
		b.fail(chatID, "Scan failed, please try again later.", "manual scan", err)
		return
	}

	text := "No new tips right now."
	if sent > 0 {
		text = fmt.Sprintf("Sent %d new tip(s) to subscribers.", sent)
	}
	if !b.subscribed(ctx, chatID) {
		text += "\nUse /start to receive notifications."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleTop(ctx context.Context, chatID int64, args string) {
	req, err := ParseTopArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	req.Profile = b.engine.Profile(ctx)

	res, err := b.engine.Top(ctx, req)
	if err != nil {
		b.fail(chatID, "Selection failed, please try again later.", "select top picks", err)
		return
	}
	b.reply(chatID, FormatResult(res, b.catalog, b.loc))
}

func (b *Bot) handleEarly(ctx context.Context, chatID int64, args string) {
	if b.early == nil {
		b.reply(chatID, "Early goal tips are not configured.")
		return
	}
	n, err := ParseLimitArg(args, 5, 20)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	tips, _ := b.early(ctx, n)
	b.reply(chatID, FormatTips(tips, b.loc))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	var st scheduler.Status
	if b.sched != nil {
		st = b.sched.Status()
	}
	subs, err := b.store.ListSubscribers(ctx)
	if err != nil {
		b.log.Error("list subscribers", "error", err)
	}

	text := FormatStatus(StatusView{
		Scheduler:   st,
		Profile:     b.engine.Profile(ctx),
		Threshold:   b.engine.Threshold(),
		Subscribers: len(subs),
		Subscribed:  slices.Contains(subs, chatID),
	}, b.now())

	if b.sched == nil {
		b.reply(chatID, text)
		return
	}
	b.replyWithKeyboard(chatID, text, pauseKeyboard(st.Paused))
}

func (b *Bot) handleInterval(ctx context.Context, chatID int64, args string) {
	if b.sched == nil {
		b.reply(chatID, "Scanning is not available.")
		return
	}
	d, err := ParseIntervalArg(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.sched.SetInterval(ctx, d); err != nil {
		b.fail(chatID, settingFailed, "set interval", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Scan interval set to %d min.", int(d.Minutes())))
}

func (b *Bot) handlePause(ctx context.Context, chatID int64, paused bool) {
	if b.sched == nil {
		b.reply(chatID, "Scanning is not available.")
		return
	}
	if err := b.sched.SetPaused(ctx, paused); err != nil {
		b.fail(chatID, settingFailed, "set paused", err)
		return
	}
	if paused {
		b.reply(chatID, "Scheduled scans paused. Use /resume to continue.")
		return
	}
	b.reply(chatID, "Scheduled scans resumed.")
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64, args string) {
	if args == "" {
		current := b.engine.Profile(ctx)
		b.replyWithKeyboard(chatID, fmt.Sprintf("Active profile: %s\nChoose a profile:", current), profileKeyboard(current))
		return
	}

	p, err := scoring.ParseProfile(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.engine.SetProfile(ctx, p); err != nil {
		b.fail(chatID, settingFailed, "set profile", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Profile set to %s.", p))
}

func (b *Bot) handleSelftest(ctx context.Context, chatID int64) {
	ctx, cancel := context.WithTimeout(ctx, selftestTimeout)
	defer cancel()

	var lines []string

	if me, err := b.api.GetMe(); err != nil {
		b.log.Error("selftest telegram", "error", err)
		lines = append(lines, "Telegram: error, see log")
	} else {
		lines = append(lines, fmt.Sprintf("Telegram: ok (@%s)", me.UserName))
	}

	switch err := b.pingOdds(ctx); {
	case errors.Is(err, source.ErrMissingAPIKey):
		lines = append(lines, "Odds API: not configured (ODDS_API_KEY is empty)")
	case err != nil:
		b.log.Error("selftest odds api", "error", err)
		lines = append(lines, "Odds API: error, see log")
	default:
		lines = append(lines, "Odds API: ok")
	}

	if subs, err := b.store.ListSubscribers(ctx); err != nil {
		b.log.Error("selftest storage", "error", err)
		lines = append(lines, "Storage: error, see log")
	} else {
		lines = append(lines, fmt.Sprintf("Storage: ok (%d subscribers)", len(subs)))
	}

	b.reply(chatID, "Self-test:\n"+strings.Join(lines, "\n"))
}

func (b *Bot) pingOdds(ctx context.Context) error {
	if b.odds == nil {
		return source.ErrMissingAPIKey
	}
	return b.odds.Ping(ctx)
}

func (b *Bot) handleSources(chatID int64) {
	b.reply(chatID, FormatReports(b.engine.LastReports()))
}

func (b *Bot) subscribed(ctx context.Context, chatID int64) bool {
	subs, err := b.store.ListSubscribers(ctx)
	if err != nil {
		b.log.Error("list subscribers", "error", err)
		return false
	}
	return slices.Contains(subs, chatID)
}

func pauseKeyboard(paused bool) tgbotapi.InlineKeyboardMarkup {
	if paused {
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Resume", cmdResume+":1"),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Pause", cmdPause+":1"),
	))
}

func profileKeyboard(current scoring.Profile) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(scoring.Profiles))
	for _, p := range scoring.Profiles {
		label := string(p)
		if p == current {
			label = "• " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cmdProfile+":"+string(p)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
