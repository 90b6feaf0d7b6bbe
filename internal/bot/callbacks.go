package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(chatID, "Access denied.")
		return
	}

	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}

	action := parts[0]
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}

	b.log.Info("callback",
		"action", action,
		"request_id", id,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case "approve":
		if err := b.engine.ApproveOne(ctx, id); err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to approve request #%d: %v", id, err))
			return
		}
		b.reply(chatID, fmt.Sprintf("Request #%d approved.", id))
	case "deny":
		if err := b.engine.DenyOne(ctx, id, ""); err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to deny request #%d: %v", id, err))
			return
		}
		b.reply(chatID, fmt.Sprintf("Request #%d denied.", id))
	}
}
