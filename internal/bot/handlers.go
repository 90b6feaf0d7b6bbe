package bot

import (
	"context"
	"fmt"

	"seerr_bot/internal/model"
)

const auditListLimit = 10

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Seerr Bot!

Monitor and manage your media request queue from Telegram.

Quick start:
1. /status — request counts by status
2. /pending — pending requests
3. /approve <id> — approve a request

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Queue overview:
/status — request counts, total, server version
/pending — pending requests
/recent — most recent requests
/refresh — fetch fresh data now

Approvals:
/approve <id> — approve a request
/deny <id> [reason] — deny a request
/approveall — approve all pending requests
/approvehigh — approve pending requests rated above the threshold

Auto-approval rules:
/rules — list rules and their state
/rule on <name> — enable a rule
/rule off <name> — disable a rule
/audit — recent automatic approvals`)
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	snap := b.coord.Snapshot()
	if snap == nil {
		b.reply(chatID, "No data yet. The first refresh has not completed; try /refresh.")
		return
	}

	version := ""
	if info, err := b.client.ServerInfo(ctx); err == nil && info != nil {
		version = info.Version
	}

	lastAt, lastErr := b.coord.LastRefresh()
	b.reply(chatID, FormatStatus(snap, version, lastAt, lastErr))
}

func (b *Bot) handlePending(chatID int64) {
	snap := b.coord.Snapshot()
	if snap == nil {
		b.reply(chatID, "No data yet. Try /refresh.")
		return
	}
	b.reply(chatID, FormatItemList("Pending requests", snap.Pending()))
}

func (b *Bot) handleRecent(chatID int64) {
	snap := b.coord.Snapshot()
	if snap == nil {
		b.reply(chatID, "No data yet. Try /refresh.")
		return
	}
	b.reply(chatID, FormatItemList("Recent requests", snap.RecentItems))
}

func (b *Bot) handleApprove(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /approve <request_id>")
		return
	}

	if err := b.engine.ApproveOne(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to approve request #%d: %v", id, err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Request #%d approved.", id))
}

func (b *Bot) handleDeny(ctx context.Context, chatID int64, args string) {
	id, reason, err := ParseDenyArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /deny <request_id> [reason]")
		return
	}

	if err := b.engine.DenyOne(ctx, id, reason); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to deny request #%d: %v", id, err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Request #%d denied.", id))
}

func (b *Bot) handleApproveAll(ctx context.Context, chatID int64) {
	snap := b.coord.Snapshot()
	if snap == nil || len(snap.Pending()) == 0 {
		b.reply(chatID, "No pending requests.")
		return
	}

	result := b.engine.ApproveAllPending(ctx)
	b.reply(chatID, FormatBatchResult("Approve all pending", result))
}

func (b *Bot) handleApproveHigh(ctx context.Context, chatID int64) {
	snap := b.coord.Snapshot()
	if snap == nil || len(snap.Pending()) == 0 {
		b.reply(chatID, "No pending requests.")
		return
	}

	result := b.engine.ApproveHighRated(ctx, b.cfg.RatingThreshold)
	if result.Succeeded == 0 && len(result.FailedIDs) == 0 {
		b.reply(chatID, fmt.Sprintf("No pending requests rated %.1f or higher.", b.cfg.RatingThreshold))
		return
	}
	b.reply(chatID, FormatBatchResult("Approve high rated", result))
}

func (b *Bot) handleRules(chatID int64) {
	b.reply(chatID, FormatRuleList(b.engine.List()))
}

func (b *Bot) handleRule(ctx context.Context, chatID int64, args string) {
	enable, name, err := ParseRuleArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /rule on|off <name>")
		return
	}

	if enable {
		err = b.engine.Enable(ctx, name)
	} else {
		err = b.engine.Disable(ctx, name)
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	b.reply(chatID, fmt.Sprintf("Rule %q %s.", name, state))
}

func (b *Bot) handleRefresh(chatID int64) {
	b.coord.RequestRefresh()
	b.reply(chatID, "Refresh scheduled.")
}

func (b *Bot) handleAudit(ctx context.Context, chatID int64) {
	records, err := b.store.ListApprovals(ctx, auditListLimit)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatAuditLog(records))
}

// statusLine renders a single count row for the status overview.
func statusLine(s model.Status, count int) string {
	return fmt.Sprintf("%s: %d", s.Name(), count)
}
