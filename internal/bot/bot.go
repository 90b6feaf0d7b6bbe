// Package bot implements the Telegram operator surface.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"seerr_bot/internal/config"
	"seerr_bot/internal/coordinator"
	"seerr_bot/internal/jellyseerr"
	"seerr_bot/internal/model"
	"seerr_bot/internal/rules"
	"seerr_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ServerInfoSource exposes the cached server metadata.
type ServerInfoSource interface {
	ServerInfo(ctx context.Context) (*jellyseerr.ServerInfo, error)
}

// Bot handles operator commands and pushes request notifications.
type Bot struct {
	api    telegramAPI
	coord  *coordinator.Coordinator
	engine *rules.Engine
	client ServerInfoSource
	store  storage.Storage
	cfg    *config.Config
	log    *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, coord *coordinator.Coordinator, engine *rules.Engine, client ServerInfoSource, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:    api,
		coord:  coord,
		engine: engine,
		client: client,
		store:  store,
		cfg:    cfg,
		log:    log,
	}, nil
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

// NotifyNewPending pushes a new-pending notification with inline
// approve/deny buttons per item. No-op when no notification chat is
// configured.
func (b *Bot) NotifyNewPending(np coordinator.NewPending) {
	if b.cfg.NotifyChatID == 0 {
		return
	}

	header := tgbotapi.NewMessage(b.cfg.NotifyChatID, FormatNewPending(np))
	header.DisableWebPagePreview = true
	if _, err := b.api.Send(header); err != nil {
		b.log.Error("send new-pending notification", "error", err)
		return
	}

	for _, item := range np.Items {
		msg := tgbotapi.NewMessage(b.cfg.NotifyChatID, FormatItem(item))
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Approve", fmt.Sprintf("approve:%d", item.ID)),
				tgbotapi.NewInlineKeyboardButtonData("Deny", fmt.Sprintf("deny:%d", item.ID)),
			),
		)
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send pending item", "request_id", item.ID, "error", err)
		}
	}
}

// NotifyAutoApproved pushes an audit notification for an automatic
// approval.
func (b *Bot) NotifyAutoApproved(item model.EnrichedRequest, ruleName, reason string) {
	if b.cfg.NotifyChatID == 0 {
		return
	}
	b.SendMessage(b.cfg.NotifyChatID, fmt.Sprintf("Auto-approved: %s\nRule: %s — %s", item.Title, ruleName, reason))
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "status":
		b.handleStatus(ctx, chatID)
	case "pending":
		b.handlePending(chatID)
	case "recent":
		b.handleRecent(chatID)
	case "approve":
		b.handleApprove(ctx, chatID, args)
	case "deny":
		b.handleDeny(ctx, chatID, args)
	case "approveall":
		b.handleApproveAll(ctx, chatID)
	case "approvehigh":
		b.handleApproveHigh(ctx, chatID)
	case "rules":
		b.handleRules(chatID)
	case "rule":
		b.handleRule(ctx, chatID, args)
	case "refresh":
		b.handleRefresh(chatID)
	case "audit":
		b.handleAudit(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
