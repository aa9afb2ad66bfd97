package dedup

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/chatbridge/internal/db"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSQLite(t *testing.T, ttl time.Duration, c *clock) *SQLite {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	s := NewSQLite(database, ttl)
	s.now = c.now
	return s
}

// newPostgres returns nil unless CHATBRIDGE_TEST_POSTGRES_DSN points at a
// scratch database. The table is emptied first.
func newPostgres(t *testing.T, ttl time.Duration, c *clock) *Postgres {
	t.Helper()
	dsn := os.Getenv("CHATBRIDGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		return nil
	}
	ctx := context.Background()
	pool, err := db.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, "DELETE FROM chatbridge_processed_events"); err != nil {
		t.Fatalf("clearing table: %v", err)
	}
	p := NewPostgres(pool, ttl)
	p.now = c.now
	return p
}

func newMemory(ttl time.Duration, c *clock) *Memory {
	m := NewMemory(ttl)
	m.now = c.now
	return m
}

func stores(t *testing.T, ttl time.Duration) map[string]struct {
	store Store
	clock *clock
} {
	mc := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sc := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := map[string]struct {
		store Store
		clock *clock
	}{
		"memory": {newMemory(ttl, mc), mc},
		"sqlite": {newSQLite(t, ttl, sc), sc},
	}
	pc := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	if p := newPostgres(t, ttl, pc); p != nil {
		m["postgres"] = struct {
			store Store
			clock *clock
		}{p, pc}
	}
	return m
}

func TestMarkSeen(t *testing.T) {
	for name, tc := range stores(t, time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			seen, err := tc.store.MarkSeen(ctx, "evt-1")
			if err != nil {
				t.Fatal(err)
			}
			if seen {
				t.Error("first sighting reported as seen")
			}

			seen, err = tc.store.MarkSeen(ctx, "evt-1")
			if err != nil {
				t.Fatal(err)
			}
			if !seen {
				t.Error("second sighting not reported as seen")
			}

			if seen, _ := tc.store.MarkSeen(ctx, "evt-2"); seen {
				t.Error("different id reported as seen")
			}
		})
	}
}

func TestMarkSeenExpires(t *testing.T) {
	for name, tc := range stores(t, time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tc.store.MarkSeen(ctx, "evt-1")

			tc.clock.advance(2 * time.Hour)
			if seen, _ := tc.store.MarkSeen(ctx, "evt-1"); seen {
				t.Error("expired entry still reported as seen")
			}
			if seen, _ := tc.store.MarkSeen(ctx, "evt-1"); !seen {
				t.Error("refreshed entry not reported as seen")
			}
		})
	}
}

func TestForget(t *testing.T) {
	for name, tc := range stores(t, time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tc.store.MarkSeen(ctx, "claimed")
			tc.store.MarkSeen(ctx, "kept")

			if err := tc.store.Forget(ctx, "claimed"); err != nil {
				t.Fatal(err)
			}
			if seen, _ := tc.store.MarkSeen(ctx, "claimed"); seen {
				t.Error("forgotten entry still reported as seen")
			}
			if seen, _ := tc.store.MarkSeen(ctx, "kept"); !seen {
				t.Error("Forget removed another entry")
			}
			if err := tc.store.Forget(ctx, "never-seen"); err != nil {
				t.Errorf("forgetting an unknown id: %v", err)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	for name, tc := range stores(t, time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tc.store.MarkSeen(ctx, "old")
			tc.clock.advance(90 * time.Minute)
			tc.store.MarkSeen(ctx, "new")

			n, err := tc.store.Prune(ctx, tc.clock.t.Add(-time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if n != 1 {
				t.Errorf("pruned %d entries, want 1", n)
			}
			if seen, _ := tc.store.MarkSeen(ctx, "new"); !seen {
				t.Error("live entry was pruned")
			}
		})
	}
}

func TestMemoryConcurrentClaim(t *testing.T) {
	m := NewMemory(time.Hour)
	var (
		wg     sync.WaitGroup
		claims int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if seen, _ := m.MarkSeen(context.Background(), "evt"); !seen {
				atomic.AddInt32(&claims, 1)
			}
		}()
	}
	wg.Wait()
	if claims != 1 {
		t.Errorf("expected exactly one claim, got %d", claims)
	}
}
