package bots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ziadkadry99/chatbridge/internal/backend"
	"github.com/ziadkadry99/chatbridge/internal/command"
	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	"github.com/ziadkadry99/chatbridge/internal/line"
)

var errNotConfigured = errors.New("not configured")

// Backends are the reply producers available to the Processor. Nil
// entries are reported as backend errors when a command needs them.
type Backends struct {
	AI      Assistant
	Domains map[command.Domain]backend.Backend
}

// Processor handles one text message event: route, produce the reply
// text, send it, and record the attempt.
type Processor struct {
	backends   Backends
	replier    Replier
	deliveries DeliveryLog
	logger     *slog.Logger
}

// NewProcessor creates a Processor. deliveries may be nil.
func NewProcessor(backends Backends, replier Replier, deliveries DeliveryLog, logger *slog.Logger) *Processor {
	return &Processor{
		backends:   backends,
		replier:    replier,
		deliveries: deliveries,
		logger:     logger.With("component", "processor"),
	}
}

// HandleEvent implements EventHandler. Events other than text messages
// with a reply token are ignored.
func (p *Processor) HandleEvent(ctx context.Context, ev line.Event) {
	if !ev.IsTextMessage() {
		p.logger.Debug("event ignored", "event_id", ev.WebhookEventID, "type", ev.Type)
		return
	}

	start := time.Now()
	cmd := command.Route(ev.Text())
	log := p.logger.With("event_id", ev.WebhookEventID, "kind", cmd.Kind)
	if cmd.Kind == command.KindDomain {
		log = log.With("domain", cmd.Domain)
	}

	entry := deliveries.Entry{
		EventID: ev.WebhookEventID,
		Kind:    string(cmd.Kind),
		Domain:  string(cmd.Domain),
	}

	text, err := p.Respond(ctx, cmd)
	if err != nil {
		log.Warn("backend failed", "error", err)
		entry.BackendError = err.Error()
		text = ApologyText
	}
	entry.Preview = text

	sendErr := p.replier.Send(ctx, ev.ReplyToken, text)
	entry.Duration = time.Since(start)
	if sendErr != nil {
		entry.Status = deliveries.StatusFailed
		entry.Reason, entry.StatusCode = classifySendError(sendErr)
		log.Warn("reply failed", "reason", entry.Reason, "error", sendErr)
	} else {
		entry.Status = deliveries.StatusSent
		log.Info("reply sent", "duration", entry.Duration)
	}

	p.record(ctx, entry)
}

// Respond produces the reply text for a routed command.
func (p *Processor) Respond(ctx context.Context, cmd command.Command) (string, error) {
	switch cmd.Kind {
	case command.KindAI:
		if p.backends.AI == nil {
			return "", &backend.Error{Backend: "ai", Op: "lookup", Err: errNotConfigured}
		}
		return p.backends.AI.Ask(ctx, cmd.Payload, cmd.Pro)

	case command.KindDomain:
		b := p.backends.Domains[cmd.Domain]
		if b == nil {
			return "", &backend.Error{Backend: string(cmd.Domain), Op: "lookup", Err: errNotConfigured}
		}
		return b.Query(ctx, cmd.Payload)

	default:
		return cmd.Payload, nil
	}
}

func (p *Processor) record(ctx context.Context, entry deliveries.Entry) {
	if p.deliveries == nil {
		return
	}
	// The dispatch deadline may have passed; the record is still wanted.
	if err := p.deliveries.Log(context.WithoutCancel(ctx), entry); err != nil {
		p.logger.Warn("record delivery failed", "event_id", entry.EventID, "error", err)
	}
}

func classifySendError(err error) (deliveries.Reason, int) {
	var sendErr *line.SendError
	switch {
	case errors.As(err, &sendErr):
		return deliveries.ReasonRejected, sendErr.StatusCode
	case errors.Is(err, line.ErrNoAccessToken):
		return deliveries.ReasonNoToken, 0
	default:
		return deliveries.ReasonTransport, 0
	}
}

// panicEntry describes an event whose handler panicked.
func panicEntry(ev line.Event, v any) deliveries.Entry {
	return deliveries.Entry{
		EventID:      ev.WebhookEventID,
		Kind:         string(command.Route(ev.Text()).Kind),
		Status:       deliveries.StatusFailed,
		Reason:       deliveries.ReasonPanic,
		BackendError: fmt.Sprint(v),
	}
}
