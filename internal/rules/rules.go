// Package rules implements the auto-approval rule engine.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"seerr_bot/internal/coordinator"
	"seerr_bot/internal/jellyseerr"
	"seerr_bot/internal/model"
	"seerr_bot/internal/storage"
)

// Kind selects the predicate a rule evaluates.
type Kind string

// Supported rule kinds.
const (
	KindRating  Kind = "rating"
	KindTrusted Kind = "trusted"
)

// Rule is a named approval predicate.
type Rule struct {
	Name      string
	Kind      Kind
	Threshold float64
	Trusted   map[string]struct{}
}

// Match checks an item against the rule's predicate and returns a
// human-readable reason on success. The rating threshold is inclusive.
func (r Rule) Match(item model.EnrichedRequest) (string, bool) {
	switch r.Kind {
	case KindRating:
		if item.Rating >= r.Threshold {
			return fmt.Sprintf("High rating (%.1f)", item.Rating), true
		}
	case KindTrusted:
		if _, ok := r.Trusted[item.RequestedBy]; ok {
			return fmt.Sprintf("Trusted user (%s)", item.RequestedBy), true
		}
	}
	return "", false
}

// Approver is the slice of the API client the engine needs.
type Approver interface {
	Approve(ctx context.Context, requestID int64) jellyseerr.ActionResult
	Deny(ctx context.Context, requestID int64, reason string) jellyseerr.ActionResult
}

// SnapshotSource provides the published snapshot and the new-pending
// subscription. Implemented by the coordinator.
type SnapshotSource interface {
	Snapshot() *model.Snapshot
	Subscribe(coordinator.Observer) func()
	RequestRefresh()
}

// AuditFunc receives one audit notification per automatic approval.
type AuditFunc func(item model.EnrichedRequest, ruleName, reason string)

// toggle pairs a rule with its enabled state. The subscription handle
// is held only while the toggle is on.
type toggle struct {
	rule        Rule
	enabled     bool
	unsubscribe func()
}

// Engine owns the rule toggles and evaluates newly observed pending
// requests against the enabled rules.
type Engine struct {
	client Approver
	source SnapshotSource
	store  storage.Storage
	log    *slog.Logger
	pace   time.Duration

	mu      sync.Mutex
	toggles map[string]*toggle
	order   []string
	audits  []AuditFunc
}

// NewEngine creates an Engine with the standard 500ms pacing between
// batched write calls.
func NewEngine(client Approver, source SnapshotSource, store storage.Storage, log *slog.Logger) *Engine {
	return &Engine{
		client:  client,
		source:  source,
		store:   store,
		log:     log,
		pace:    500 * time.Millisecond,
		toggles: make(map[string]*toggle),
	}
}

// AddRule registers a rule in the disabled state.
func (e *Engine) AddRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.toggles[rule.Name]; exists {
		return
	}
	e.toggles[rule.Name] = &toggle{rule: rule}
	e.order = append(e.order, rule.Name)
}

// OnAudit registers an observer for audit notifications.
func (e *Engine) OnAudit(fn AuditFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audits = append(e.audits, fn)
}

// Restore re-enables every rule whose persisted toggle state was on.
func (e *Engine) Restore(ctx context.Context) error {
	states, err := e.store.ListRuleStates(ctx)
	if err != nil {
		return fmt.Errorf("load rule states: %w", err)
	}
	for name, enabled := range states {
		if enabled {
			if err := e.Enable(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Enable turns a rule on: it subscribes to new-pending notifications
// and persists the toggle state.
func (e *Engine) Enable(ctx context.Context, name string) error {
	e.mu.Lock()
	t, ok := e.toggles[name]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown rule %q", name)
	}
	if !t.enabled {
		t.enabled = true
		rule := t.rule
		t.unsubscribe = e.source.Subscribe(func(np coordinator.NewPending) {
			e.evaluate(rule, np.Items)
		})
	}
	e.mu.Unlock()

	if err := e.store.SetRuleEnabled(ctx, name, true); err != nil {
		return err
	}
	e.log.Info("rule enabled", "rule", name)
	return nil
}

// Disable turns a rule off and drops its subscription.
func (e *Engine) Disable(ctx context.Context, name string) error {
	e.mu.Lock()
	t, ok := e.toggles[name]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown rule %q", name)
	}
	if t.enabled {
		t.enabled = false
		if t.unsubscribe != nil {
			t.unsubscribe()
			t.unsubscribe = nil
		}
	}
	e.mu.Unlock()

	if err := e.store.SetRuleEnabled(ctx, name, false); err != nil {
		return err
	}
	e.log.Info("rule disabled", "rule", name)
	return nil
}

// Close drops all subscriptions without touching persisted state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.toggles {
		if t.unsubscribe != nil {
			t.unsubscribe()
			t.unsubscribe = nil
		}
		t.enabled = false
	}
}

// RuleStatus is one row of the rule listing.
type RuleStatus struct {
	Name    string
	Kind    Kind
	Enabled bool
}

// List returns all rules in registration order.
func (e *Engine) List() []RuleStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RuleStatus, 0, len(e.order))
	for _, name := range e.order {
		t := e.toggles[name]
		out = append(out, RuleStatus{Name: name, Kind: t.rule.Kind, Enabled: t.enabled})
	}
	return out
}

// evaluate approves every new pending item matching the rule and emits
// an audit notification per approval.
func (e *Engine) evaluate(rule Rule, items []model.EnrichedRequest) {
	ctx := context.Background()
	for _, item := range items {
		reason, ok := rule.Match(item)
		if !ok {
			continue
		}

		result := e.client.Approve(ctx, item.ID)
		if !result.Success {
			e.log.Error("auto-approve failed", "rule", rule.Name, "request_id", item.ID, "error", result.Error)
			continue
		}

		e.log.Info("auto-approved", "rule", rule.Name, "request_id", item.ID, "title", item.Title, "reason", reason)
		e.recordApproval(ctx, item, rule.Name, reason)
	}
}

func (e *Engine) recordApproval(ctx context.Context, item model.EnrichedRequest, ruleName, reason string) {
	rec := &model.ApprovalRecord{
		RequestID: item.ID,
		Title:     item.Title,
		RuleName:  ruleName,
		Reason:    reason,
	}
	if err := e.store.RecordApproval(ctx, rec); err != nil {
		e.log.Error("record approval", "request_id", item.ID, "error", err)
	}

	e.mu.Lock()
	audits := make([]AuditFunc, len(e.audits))
	copy(audits, e.audits)
	e.mu.Unlock()

	for _, fn := range audits {
		fn(item, ruleName, reason)
	}
}

// StandardRules builds the two built-in rules from configuration.
func StandardRules(ratingThreshold float64, trustedUsers []string) []Rule {
	trusted := make(map[string]struct{}, len(trustedUsers))
	for _, u := range trustedUsers {
		trusted[u] = struct{}{}
	}
	return []Rule{
		{Name: "high_rated", Kind: KindRating, Threshold: ratingThreshold},
		{Name: "trusted_users", Kind: KindTrusted, Trusted: trusted},
	}
}
