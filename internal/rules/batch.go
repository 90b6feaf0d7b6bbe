package rules

import (
	"context"
	"time"

	"seerr_bot/internal/model"
)

// DefaultDenyReason is used when a deny operation gives no reason.
const DefaultDenyReason = "Denied via seerr_bot"

// BatchResult aggregates the outcome of a batch write operation.
type BatchResult struct {
	Succeeded int
	FailedIDs []int64
}

// ApproveOne approves a single request and triggers a refresh on
// success so the published snapshot catches up.
func (e *Engine) ApproveOne(ctx context.Context, requestID int64) error {
	result := e.client.Approve(ctx, requestID)
	if !result.Success {
		return &ActionError{RequestID: requestID, Message: result.Error}
	}
	e.source.RequestRefresh()
	return nil
}

// DenyOne denies a single request with the given reason (or the
// default when empty) and triggers a refresh on success.
func (e *Engine) DenyOne(ctx context.Context, requestID int64, reason string) error {
	if reason == "" {
		reason = DefaultDenyReason
	}
	result := e.client.Deny(ctx, requestID, reason)
	if !result.Success {
		return &ActionError{RequestID: requestID, Message: result.Error}
	}
	e.source.RequestRefresh()
	return nil
}

// BatchApprove approves the given requests sequentially with a fixed
// delay between calls. A single failure never stops the batch.
func (e *Engine) BatchApprove(ctx context.Context, requestIDs []int64) BatchResult {
	return e.runBatch(ctx, requestIDs, func(id int64) bool {
		return e.client.Approve(ctx, id).Success
	})
}

// BatchDeny denies the given requests sequentially with a fixed delay
// between calls.
func (e *Engine) BatchDeny(ctx context.Context, requestIDs []int64, reason string) BatchResult {
	if reason == "" {
		reason = DefaultDenyReason
	}
	return e.runBatch(ctx, requestIDs, func(id int64) bool {
		return e.client.Deny(ctx, id, reason).Success
	})
}

// ApproveAllPending approves every request in the current pending
// bucket.
func (e *Engine) ApproveAllPending(ctx context.Context) BatchResult {
	return e.BatchApprove(ctx, pendingIDs(e.source.Snapshot(), nil))
}

// ApproveHighRated approves every pending request matching the rating
// rule.
func (e *Engine) ApproveHighRated(ctx context.Context, threshold float64) BatchResult {
	rule := Rule{Kind: KindRating, Threshold: threshold}
	return e.BatchApprove(ctx, pendingIDs(e.source.Snapshot(), func(item model.EnrichedRequest) bool {
		_, ok := rule.Match(item)
		return ok
	}))
}

func (e *Engine) runBatch(ctx context.Context, requestIDs []int64, do func(id int64) bool) BatchResult {
	var result BatchResult
	for i, id := range requestIDs {
		if i > 0 {
			select {
			case <-ctx.Done():
				result.FailedIDs = append(result.FailedIDs, requestIDs[i:]...)
				return result
			case <-time.After(e.pace):
			}
		}
		if do(id) {
			result.Succeeded++
		} else {
			result.FailedIDs = append(result.FailedIDs, id)
		}
	}

	if result.Succeeded > 0 {
		e.source.RequestRefresh()
	}
	e.log.Info("batch complete", "succeeded", result.Succeeded, "failed", len(result.FailedIDs))
	return result
}

func pendingIDs(snap *model.Snapshot, keep func(model.EnrichedRequest) bool) []int64 {
	var ids []int64
	for _, item := range snap.Pending() {
		if keep == nil || keep(item) {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// ActionError reports a failed single approve/deny call.
type ActionError struct {
	RequestID int64
	Message   string
}

func (e *ActionError) Error() string {
	return "request action failed: " + e.Message
}
