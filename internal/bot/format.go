package bot

import (
	"fmt"
	"strings"
	"time"

	"seerr_bot/internal/coordinator"
	"seerr_bot/internal/model"
	"seerr_bot/internal/rules"
)

// FormatStatus renders the status overview: per-status counts, total,
// server version, and the last refresh outcome.
func FormatStatus(snap *model.Snapshot, version string, lastAt time.Time, lastErr error) string {
	var b strings.Builder
	b.WriteString("Request queue:\n")
	for _, s := range model.KnownStatuses {
		fmt.Fprintf(&b, "  %s\n", statusLine(s, snap.StatusCounts[s]))
	}
	fmt.Fprintf(&b, "\nTotal requests: %d\n", snap.TotalRequests)
	if version != "" {
		fmt.Fprintf(&b, "Server version: %s\n", version)
	}
	if !lastAt.IsZero() {
		if lastErr != nil {
			fmt.Fprintf(&b, "Last refresh: %s (failed: %v)\n", lastAt.UTC().Format("15:04:05 UTC"), lastErr)
		} else {
			fmt.Fprintf(&b, "Last refresh: %s\n", lastAt.UTC().Format("15:04:05 UTC"))
		}
	}
	return b.String()
}

// FormatItemList renders a titled list of requests.
func FormatItemList(title string, items []model.EnrichedRequest) string {
	if len(items) == 0 {
		return title + ": none."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", title)
	for _, item := range items {
		b.WriteString("\n")
		b.WriteString(FormatItem(item))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatItem renders a single request with its display metadata.
func FormatItem(item model.EnrichedRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", item.ID, item.Title)
	if item.Rating > 0 {
		fmt.Fprintf(&b, " ★%.1f", item.Rating)
	}
	fmt.Fprintf(&b, " [%s]", item.Status.Name())
	fmt.Fprintf(&b, "\n  %s, requested by %s", typeLabel(item.Type), item.RequestedBy)
	if item.ReleaseDate != "" {
		fmt.Fprintf(&b, " (%s)", item.ReleaseDate)
	}
	if len(item.Genres) > 0 {
		fmt.Fprintf(&b, "\n  %s", strings.Join(item.Genres, ", "))
	}
	return b.String()
}

// FormatNewPending renders the header of a new-pending notification.
func FormatNewPending(np coordinator.NewPending) string {
	if np.Count == 1 {
		return "1 new media request:"
	}
	return fmt.Sprintf("%d new media requests:", np.Count)
}

// FormatBatchResult renders the aggregate outcome of a batch action.
func FormatBatchResult(title string, result rules.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d approved", title, result.Succeeded)
	if len(result.FailedIDs) > 0 {
		ids := make([]string, len(result.FailedIDs))
		for i, id := range result.FailedIDs {
			ids[i] = fmt.Sprintf("#%d", id)
		}
		fmt.Fprintf(&b, ", %d failed (%s)", len(result.FailedIDs), strings.Join(ids, ", "))
	}
	b.WriteString(".")
	return b.String()
}

// FormatRuleList renders the rule toggles and their state.
func FormatRuleList(statuses []rules.RuleStatus) string {
	if len(statuses) == 0 {
		return "No rules configured."
	}
	var b strings.Builder
	b.WriteString("Auto-approval rules:\n")
	for _, s := range statuses {
		state := "off"
		if s.Enabled {
			state = "on"
		}
		fmt.Fprintf(&b, "\n%s (%s) [%s]\n", s.Name, ruleKindLabel(s.Kind), state)
	}
	b.WriteString("\nUse /rule on|off <name> to toggle.")
	return b.String()
}

// FormatAuditLog renders recent automatic approvals, newest first.
func FormatAuditLog(records []model.ApprovalRecord) string {
	if len(records) == 0 {
		return "No automatic approvals recorded."
	}
	var b strings.Builder
	b.WriteString("Recent automatic approvals:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "\n#%d %s\n  %s — %s (%s)\n", r.RequestID, r.Title, r.RuleName, r.Reason, r.ApprovedAt)
	}
	return b.String()
}

func typeLabel(t model.MediaType) string {
	if t == model.MediaTV {
		return "TV"
	}
	return "Movie"
}

func ruleKindLabel(k rules.Kind) string {
	switch k {
	case rules.KindRating:
		return "rating threshold"
	case rules.KindTrusted:
		return "trusted users"
	}
	return string(k)
}
