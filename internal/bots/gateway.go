package bots

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/chatbridge/internal/dedup"
	"github.com/ziadkadry99/chatbridge/internal/line"
)

// DefaultTimeout bounds a dispatch when none is configured.
const DefaultTimeout = 8 * time.Second

// releaseTimeout bounds returning dedup claims after the deadline.
const releaseTimeout = 2 * time.Second

// GatewayConfig tunes a Gateway.
type GatewayConfig struct {
	Timeout        time.Duration
	MaxConcurrency int // 0 means unlimited
}

// Result summarizes one dispatch.
type Result struct {
	Received    int
	Redelivered int
	Duplicates  int
	Dispatched  int
	Completed   int
	TimedOut    bool
}

// Gateway fans the events of one webhook call out to the handler. Each
// event runs in its own goroutine; a panic or error in one never reaches
// the others or the caller.
type Gateway struct {
	handler    EventHandler
	dedup      dedup.Store
	deliveries DeliveryLog
	cfg        GatewayConfig
	logger     *slog.Logger
}

// NewGateway creates a Gateway. store and deliveries may be nil.
func NewGateway(handler EventHandler, store dedup.Store, deliveries DeliveryLog, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gateway{
		handler:    handler,
		dedup:      store,
		deliveries: deliveries,
		cfg:        cfg,
		logger:     logger.With("component", "gateway"),
	}
}

// Dispatch processes events and returns once every event has settled or
// the deadline has passed, whichever comes first. Events still running at
// the deadline are abandoned: their context is cancelled and they are
// logged, but the caller is not held up.
func (g *Gateway) Dispatch(ctx context.Context, events []line.Event) Result {
	res := Result{Received: len(events)}

	// Events outlive a disconnected caller, up to the deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.Timeout)
	defer cancel()

	var accepted []line.Event
	for _, ev := range events {
		switch {
		case ev.DeliveryContext.IsRedelivery:
			res.Redelivered++
			g.logger.Debug("redelivery dropped", "event_id", ev.WebhookEventID)
		case g.seen(ctx, ev.WebhookEventID):
			res.Duplicates++
			g.logger.Debug("duplicate dropped", "event_id", ev.WebhookEventID)
		default:
			accepted = append(accepted, ev)
		}
	}
	res.Dispatched = len(accepted)
	if len(accepted) == 0 {
		return res
	}

	var completed atomic.Int64
	var eg errgroup.Group
	if g.cfg.MaxConcurrency > 0 {
		eg.SetLimit(g.cfg.MaxConcurrency)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, ev := range accepted {
			if ctx.Err() != nil {
				g.release(accepted[i:])
				break
			}
			eg.Go(func() error {
				// With a concurrency limit the slot may only free up
				// after the deadline.
				if ctx.Err() != nil {
					g.release([]line.Event{ev})
					return nil
				}
				g.run(ctx, ev)
				completed.Add(1)
				return nil
			})
		}
		_ = eg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		res.TimedOut = true
	}

	res.Completed = int(completed.Load())
	if res.TimedOut {
		g.logger.Warn("dispatch deadline exceeded",
			"timeout", g.cfg.Timeout,
			"dispatched", res.Dispatched,
			"abandoned", res.Dispatched-res.Completed,
		)
	}
	return res
}

// seen claims id in the dedup store. Store failures let the event through.
func (g *Gateway) seen(ctx context.Context, id string) bool {
	if g.dedup == nil || id == "" {
		return false
	}
	seen, err := g.dedup.MarkSeen(ctx, id)
	if err != nil {
		g.logger.Warn("dedup check failed", "event_id", id, "error", err)
		return false
	}
	return seen
}

// release returns the dedup claims of events that never started, so a later
// delivery of the same event is not dropped as a duplicate.
func (g *Gateway) release(events []line.Event) {
	if g.dedup == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	for _, ev := range events {
		g.logger.Warn("event not started before deadline", "event_id", ev.WebhookEventID)
		if ev.WebhookEventID == "" {
			continue
		}
		if err := g.dedup.Forget(ctx, ev.WebhookEventID); err != nil {
			g.logger.Warn("release dedup claim failed", "event_id", ev.WebhookEventID, "error", err)
		}
	}
}

func (g *Gateway) run(ctx context.Context, ev line.Event) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		g.logger.Error("event handler panicked",
			"event_id", ev.WebhookEventID,
			"panic", v,
			"stack", string(debug.Stack()),
		)
		if g.deliveries != nil {
			if err := g.deliveries.Log(context.WithoutCancel(ctx), panicEntry(ev, v)); err != nil {
				g.logger.Warn("record delivery failed", "event_id", ev.WebhookEventID, "error", err)
			}
		}
	}()
	g.handler.HandleEvent(ctx, ev)
}
