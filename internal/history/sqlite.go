package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
)

const (
	selectVersionSQL    = `SELECT version FROM history_meta WHERE id = 1`
	selectSelectionsSQL = `SELECT week, period, category, item FROM selections ORDER BY week, period, category, seq`
	deleteSelectionsSQL = `DELETE FROM selections`
	insertSelectionSQL  = `INSERT INTO selections (week, period, category, seq, item) VALUES (?, ?, ?, ?, ?)`
	bumpVersionSQL      = `UPDATE history_meta SET version = ? WHERE id = 1 AND version = ?`
	resetVersionSQL     = `INSERT INTO history_meta (id, version) VALUES (1, 1)
		ON CONFLICT(id) DO UPDATE SET version = history_meta.version + 1
		RETURNING version`
)

// SQLiteStore persists the history in the selections table.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.Mutex
	version int64

	// unread is set when the last Load could not read the history; the
	// next Save then replaces it without a version check.
	unread bool
}

// NewSQLiteStore creates a SQLiteStore on a migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads every selection row. Query failures load as an empty history.
func (s *SQLiteStore) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, version, err := s.read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Warning: ignoring unreadable history database: %v", err)
		s.version = 0
		s.unread = true
		return New(), nil
	}
	s.version = version
	s.unread = false
	return rec, nil
}

func (s *SQLiteStore) read(ctx context.Context) (Record, int64, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, selectVersionSQL).Scan(&version); err != nil {
		return nil, 0, fmt.Errorf("failed to read history version: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selectSelectionsSQL)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	rec := New()
	for rows.Next() {
		var (
			week             int64
			period, category string
			item             string
		)
		if err := rows.Scan(&week, &period, &category, &item); err != nil {
			return nil, 0, fmt.Errorf("failed to scan selection: %w", err)
		}
		rec.Record(WeekIndex(week), Period(period), Category(category), item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate selections: %w", err)
	}
	return rec, version, nil
}

// Save replaces every selection row inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	next, err := s.nextVersion(ctx, tx)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, deleteSelectionsSQL); err != nil {
		return fmt.Errorf("failed to clear selections: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSelectionSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare selection insert: %w", err)
	}
	defer stmt.Close()

	for _, week := range rec.Weeks() {
		for period, cats := range rec[week] {
			for category, items := range cats {
				for seq, item := range items {
					if _, err := stmt.ExecContext(ctx, int64(week), string(period), string(category), seq, item); err != nil {
						return fmt.Errorf("failed to insert selection: %w", err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	s.version = next
	s.unread = false
	return nil
}

// nextVersion claims the next version stamp inside tx.
func (s *SQLiteStore) nextVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	if s.unread {
		var next int64
		if err := tx.QueryRowContext(ctx, resetVersionSQL).Scan(&next); err != nil {
			return 0, fmt.Errorf("failed to reset history version: %w", err)
		}
		return next, nil
	}

	next := s.version + 1
	res, err := tx.ExecContext(ctx, bumpVersionSQL, next, s.version)
	if err != nil {
		return 0, fmt.Errorf("failed to bump history version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check history version: %w", err)
	}
	if affected != 1 {
		return 0, fmt.Errorf("failed to save history (have version %d): %w", s.version, ErrConcurrentUpdate)
	}
	return next, nil
}
