// Package dedup remembers which webhook event IDs have already been handled
// so a retried delivery does not produce a second reply.
package dedup

import (
	"context"
	"log/slog"
	"time"
)

// Store records processed event IDs for a bounded window.
type Store interface {
	// MarkSeen records id and reports whether it was already recorded
	// within the window. Callers skip the event when seen is true.
	MarkSeen(ctx context.Context, id string) (seen bool, err error)

	// Forget drops a claim made by MarkSeen for an event that was never
	// processed, so a later delivery of it is not treated as a duplicate.
	Forget(ctx context.Context, id string) error

	// Prune forgets entries recorded before the given time.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// RunPruner calls Prune every interval, dropping entries older than ttl,
// until ctx is cancelled.
func RunPruner(ctx context.Context, s Store, ttl, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Prune(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("dedup prune failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("dedup pruned", "removed", n)
			}
		}
	}
}
