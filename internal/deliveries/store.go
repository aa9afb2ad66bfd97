package deliveries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/chatbridge/internal/db"
)

// previewRunes bounds how much reply text is kept per entry.
const previewRunes = 120

// Store provides access to the deliveries table.
type Store struct {
	db   *db.DB
	feed *Feed
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, feed: NewFeed()}
}

// Feed returns the feed that receives every successfully logged entry.
func (s *Store) Feed() *Feed { return s.feed }

// Log inserts a delivery entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (
			id, created_at, event_id, kind, domain, status, reason,
			status_code, backend_error, preview, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CreatedAt.UTC().Format(time.DateTime),
		entry.EventID,
		entry.Kind,
		entry.Domain,
		string(entry.Status),
		string(entry.Reason),
		entry.StatusCode,
		entry.BackendError,
		preview(entry.Preview),
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}

	entry.Preview = preview(entry.Preview)
	s.feed.Publish(entry)
	return nil
}

// GetByID retrieves a single delivery.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanInto(row)
}

// QueryFilter controls which deliveries are returned by Query.
type QueryFilter struct {
	Status  Status
	Kind    string
	EventID string
	Since   *time.Time
	Limit   int
	Offset  int
}

// Query returns deliveries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.EventID != "" {
		clauses = append(clauses, "event_id = ?")
		args = append(args, filter.EventID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes deliveries older than the given time.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM deliveries WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old deliveries: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, created_at, event_id, kind, domain, status, reason,
	status_code, backend_error, preview, duration_ms FROM deliveries`

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e              Entry
		ts             string
		status, reason string
		durationMS     int64
	)

	err := sc.Scan(
		&e.ID, &ts, &e.EventID, &e.Kind, &e.Domain, &status, &reason,
		&e.StatusCode, &e.BackendError, &e.Preview, &durationMS,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning delivery: %w", err)
	}

	e.Status = Status(status)
	e.Reason = Reason(reason)
	e.Duration = time.Duration(durationMS) * time.Millisecond

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.CreatedAt = t
	}

	return &e, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "…"
}
