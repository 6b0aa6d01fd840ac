package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meal-rotation/internal/history"
)

// PlanRun records one planning pass.
type PlanRun struct {
	Week      history.WeekIndex
	Picks     int
	Skipped   int
	DryRun    bool
	Latency   time.Duration
	Timestamp time.Time
}

// Store handles persistence of plan runs to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a run to the database.
func (s *Store) Record(ctx context.Context, run PlanRun) error {
	ts := run.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_runs (week, picks, skipped, dry_run, latency_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		int64(run.Week), run.Picks, run.Skipped, run.DryRun, run.Latency.Milliseconds(), ts.Unix())
	if err != nil {
		return fmt.Errorf("failed to record plan run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]PlanRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT week, picks, skipped, dry_run, latency_ms, created_at FROM plan_runs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	defer rows.Close()

	var runs []PlanRun
	for rows.Next() {
		var (
			week, latencyMS, createdAt int64
			run                        PlanRun
		)
		if err := rows.Scan(&week, &run.Picks, &run.Skipped, &run.DryRun, &latencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan run: %w", err)
		}
		run.Week = history.WeekIndex(week)
		run.Latency = time.Duration(latencyMS) * time.Millisecond
		run.Timestamp = time.Unix(createdAt, 0).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan runs: %w", err)
	}
	return runs, nil
}

// Cleanup removes runs older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	return s.CleanupBefore(ctx, time.Now().AddDate(0, 0, -olderThanDays))
}

// CleanupBefore removes runs recorded before cutoff.
func (s *Store) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plan_runs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up plan runs: %w", err)
	}
	return res.RowsAffected()
}
