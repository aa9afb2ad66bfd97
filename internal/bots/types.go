package bots

import (
	"context"

	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	"github.com/ziadkadry99/chatbridge/internal/line"
)

// ApologyText is the only reply a user sees when a backend fails.
const ApologyText = "ただいまエラーが発生しています。しばらくしてからもう一度お試しください。"

// EventHandler processes one webhook event. Implementations absorb their
// own errors; nothing is returned to the dispatcher.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev line.Event)
}

// Replier delivers reply text for a reply token.
type Replier interface {
	Send(ctx context.Context, replyToken, text string) error
}

// Assistant answers free-form prompts.
type Assistant interface {
	Ask(ctx context.Context, prompt string, pro bool) (string, error)
}

// DeliveryLog records reply attempts.
type DeliveryLog interface {
	Log(ctx context.Context, entry deliveries.Entry) error
}
