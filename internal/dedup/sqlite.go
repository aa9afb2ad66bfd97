package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/chatbridge/internal/db"
)

// SQLite is a Store backed by the processed_events table, so the window
// survives restarts.
type SQLite struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite creates a SQLite store whose entries expire after ttl.
func NewSQLite(database *db.DB, ttl time.Duration) *SQLite {
	return &SQLite{db: database, ttl: ttl, now: time.Now}
}

func (s *SQLite) MarkSeen(ctx context.Context, id string) (bool, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.ttl)

	// A fresh row inserts; an expired row is refreshed; a live row is left
	// alone and reports zero rows affected.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_events (id, seen_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET seen_at = excluded.seen_at
		WHERE processed_events.seen_at < ?`,
		id, now.Format(time.DateTime), cutoff.Format(time.DateTime),
	)
	if err != nil {
		return false, fmt.Errorf("recording event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recording event %s: %w", id, err)
	}
	return n == 0, nil
}

func (s *SQLite) Forget(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM processed_events WHERE id = ?", id); err != nil {
		return fmt.Errorf("forgetting event %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM processed_events WHERE seen_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning processed events: %w", err)
	}
	return res.RowsAffected()
}
