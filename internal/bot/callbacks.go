package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdPause   = "pause"
	cmdResume  = "resume"
	cmdProfile = "profile"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, value, ok := strings.Cut(data, ":")
	if !ok || value == "" {
		return
	}

	var userID int64
	var username string
	if cb.From != nil {
		userID, username = cb.From.ID, cb.From.UserName
	}
	b.log.Info("callback",
		"action", action,
		"value", value,
		"chat_id", chatID,
		"user_id", userID,
		"username", username,
	)

	switch action {
	case cmdPause:
		b.handlePause(ctx, chatID, true)
	case cmdResume:
		b.handlePause(ctx, chatID, false)
	case cmdProfile:
		b.handleProfile(ctx, chatID, value)
	}
}
