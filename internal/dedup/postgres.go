package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store shared by every replica pointed at the same
// database, so a redelivery landing on another instance is still caught.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgres creates a Postgres store whose entries expire after ttl.
// The pool must come from db.OpenPostgres so the table exists.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration) *Postgres {
	return &Postgres{pool: pool, ttl: ttl, now: time.Now}
}

func (p *Postgres) MarkSeen(ctx context.Context, id string) (bool, error) {
	now := p.now().UTC()
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO chatbridge_processed_events (id, seen_at) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET seen_at = EXCLUDED.seen_at
		WHERE chatbridge_processed_events.seen_at < $3`,
		id, now, now.Add(-p.ttl),
	)
	if err != nil {
		return false, fmt.Errorf("recording event %s: %w", id, err)
	}
	return tag.RowsAffected() == 0, nil
}

func (p *Postgres) Forget(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM chatbridge_processed_events WHERE id = $1", id); err != nil {
		return fmt.Errorf("forgetting event %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM chatbridge_processed_events WHERE seen_at < $1",
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning processed events: %w", err)
	}
	return tag.RowsAffected(), nil
}
