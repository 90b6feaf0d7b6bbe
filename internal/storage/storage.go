// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"seerr_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	SetRuleEnabled(ctx context.Context, name string, enabled bool) error
	IsRuleEnabled(ctx context.Context, name string) (bool, error)
	ListRuleStates(ctx context.Context) (map[string]bool, error)

	RecordApproval(ctx context.Context, rec *model.ApprovalRecord) error
	ListApprovals(ctx context.Context, limit int) ([]model.ApprovalRecord, error)

	Close() error
}
