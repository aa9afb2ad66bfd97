package dedup

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Entries are lost on restart.
type Memory struct {
	ttl  time.Duration
	seen sync.Map // id -> time.Time
	now  func() time.Time
}

// NewMemory creates a Memory store whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) MarkSeen(_ context.Context, id string) (bool, error) {
	now := m.now()
	prev, loaded := m.seen.LoadOrStore(id, now)
	if !loaded {
		return false, nil
	}
	if now.Sub(prev.(time.Time)) < m.ttl {
		return true, nil
	}
	// Expired: claim it again unless another goroutine already did.
	if m.seen.CompareAndSwap(id, prev, now) {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Forget(_ context.Context, id string) error {
	m.seen.Delete(id)
	return nil
}

func (m *Memory) Prune(_ context.Context, before time.Time) (int64, error) {
	var n int64
	m.seen.Range(func(k, v any) bool {
		if v.(time.Time).Before(before) {
			m.seen.Delete(k)
			n++
		}
		return true
	})
	return n, nil
}
