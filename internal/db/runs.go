package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/apply-agent/internal/types"
)

// AttachRun is one persisted attachment run record.
type AttachRun struct {
	ID        uuid.UUID `json:"id"`
	PageURL   string    `json:"page_url"`
	Attached  bool      `json:"attached"`
	Method    string    `json:"method"`
	Reason    string    `json:"reason,omitempty"`
	Details   []string  `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordRun stores a finished attachment run. Satisfies attach.Recorder.
func (db *DB) RecordRun(ctx context.Context, pageURL string, result *types.AttachResult) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO attach_runs (page_url, attached, method, reason, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		pageURL, result.Attached, result.Method, result.Reason, result.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns retrieves the most recent attachment runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]AttachRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, page_url, attached, method, COALESCE(reason, ''), COALESCE(details, '{}'), created_at
		 FROM attach_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []AttachRun
	for rows.Next() {
		var run AttachRun
		if err := rows.Scan(&run.ID, &run.PageURL, &run.Attached, &run.Method, &run.Reason, &run.Details, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
