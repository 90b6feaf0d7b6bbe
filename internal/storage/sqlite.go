package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"seerr_bot/internal/model"
	"seerr_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SetRuleEnabled persists the enabled flag for a rule toggle.
func (s *SQLite) SetRuleEnabled(ctx context.Context, name string, enabled bool) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rule_states (name, enabled, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		name, boolToInt(enabled), now,
	)
	if err != nil {
		return fmt.Errorf("upsert rule state: %w", err)
	}
	return nil
}

// IsRuleEnabled returns the persisted enabled flag for a rule toggle.
// Unknown rules default to disabled.
func (s *SQLite) IsRuleEnabled(ctx context.Context, name string) (bool, error) {
	var enabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT enabled FROM rule_states WHERE name = ?`, name,
	).Scan(&enabled)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query rule state: %w", err)
	}
	return enabled == 1, nil
}

// ListRuleStates returns the persisted enabled flags of all rules.
func (s *SQLite) ListRuleStates(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, enabled FROM rule_states`)
	if err != nil {
		return nil, fmt.Errorf("query rule states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	states := make(map[string]bool)
	for rows.Next() {
		var name string
		var enabled int
		if err := rows.Scan(&name, &enabled); err != nil {
			return nil, fmt.Errorf("scan rule state: %w", err)
		}
		states[name] = enabled == 1
	}
	return states, rows.Err()
}

// RecordApproval inserts an audit entry and populates its ID and
// ApprovedAt.
func (s *SQLite) RecordApproval(ctx context.Context, rec *model.ApprovalRecord) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO approvals (request_id, title, rule_name, reason, approved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Title, rec.RuleName, rec.Reason, now,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	rec.ApprovedAt = now
	return nil
}

// ListApprovals returns the most recent audit entries, newest first.
func (s *SQLite) ListApprovals(ctx context.Context, limit int) ([]model.ApprovalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, title, rule_name, reason, approved_at
		 FROM approvals ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ApprovalRecord
	for rows.Next() {
		var r model.ApprovalRecord
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Title, &r.RuleName, &r.Reason, &r.ApprovedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
