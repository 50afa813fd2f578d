package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tipbot/internal/config"
	"tipbot/internal/engine"
	"tipbot/internal/market"
	"tipbot/internal/model"
	"tipbot/internal/scheduler"
	"tipbot/internal/scoring"
	"tipbot/internal/source"
	"tipbot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetMe() (tgbotapi.User, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Engine is the tip selection service used by the commands.
type Engine interface {
	Top(ctx context.Context, req engine.Request) (engine.Result, error)
	Profile(ctx context.Context) scoring.Profile
	SetProfile(ctx context.Context, p scoring.Profile) error
	Threshold() int
	LastReports() []source.Report
}

// Scheduler controls the notification cycle.
type Scheduler interface {
	RunOnce(ctx context.Context) (int, error)
	Status() scheduler.Status
	SetInterval(ctx context.Context, d time.Duration) error
	SetPaused(ctx context.Context, paused bool) error
}

// Pinger checks that an external API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EarlyTips returns up to limit early-goal tips from the programme pages.
type EarlyTips func(ctx context.Context, limit int) ([]model.Tip, []source.Report)

// Deps are the services the bot commands talk to. Odds and Early may be nil.
type Deps struct {
	Store   storage.Storage
	Engine  Engine
	Catalog *market.Catalog
	Odds    Pinger
	Early   EarlyTips
}

// Bot is the Telegram bot that handles user commands and sends notifications.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	engine  Engine
	sched   Scheduler
	catalog *market.Catalog
	odds    Pinger
	early   EarlyTips
	cfg     *config.Config
	loc     *time.Location
	now     func() time.Time
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token, services, and config.
func New(token string, deps Deps, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, deps, cfg, log), nil
}

func newBot(api telegramAPI, deps Deps, cfg *config.Config, log *slog.Logger) *Bot {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = market.Default()
	}
	return &Bot{
		api:     api,
		store:   deps.Store,
		engine:  deps.Engine,
		catalog: catalog,
		odds:    deps.Odds,
		early:   deps.Early,
		cfg:     cfg,
		loc:     loc,
		now:     time.Now,
		log:     log,
	}
}

// SetScheduler attaches the notification scheduler. The scheduler sends
// through the bot, so it is created after it.
func (b *Bot) SetScheduler(s Scheduler) {
	b.sched = s
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// FormatAlert renders a notification in the bot's timezone.
func (b *Bot) FormatAlert(a engine.Alert) string {
	return FormatAlert(a, b.loc)
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID)
	case "stop":
		b.handleStop(ctx, chatID)
	case "help":
		b.handleHelp(chatID)
	case "tip":
		b.handleTip(ctx, chatID)
	case "top":
		b.handleTop(ctx, chatID, args)
	case "early":
		b.handleEarly(ctx, chatID, args)
	case "status":
		b.handleStatus(ctx, chatID)
	case "interval":
		b.handleInterval(ctx, chatID, args)
	case cmdPause:
		b.handlePause(ctx, chatID, true)
	case cmdResume:
		b.handlePause(ctx, chatID, false)
	case cmdProfile:
		b.handleProfile(ctx, chatID, args)
	case "selftest":
		b.handleSelftest(ctx, chatID)
	case "sources":
		b.handleSources(chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
