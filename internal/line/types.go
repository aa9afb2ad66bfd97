package line

import "encoding/json"

// Event types delivered by the Messaging API.
const (
	EventMessage  = "message"
	EventFollow   = "follow"
	EventUnfollow = "unfollow"
	EventPostback = "postback"
)

// MessageTypeText is the only message type the bridge answers.
const MessageTypeText = "text"

// Webhook is the top-level webhook payload.
type Webhook struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`

	// Invalid lists events that failed to decode. They are dropped without
	// affecting the rest of the batch.
	Invalid []InvalidEvent `json:"-"`
}

// InvalidEvent is an event whose JSON did not fit Event.
type InvalidEvent struct {
	Index int
	Err   error
}

// Event is a single webhook event. ReplyToken is single-use and must never
// be persisted or logged.
type Event struct {
	Type            string          `json:"type"`
	Mode            string          `json:"mode,omitempty"`
	Timestamp       int64           `json:"timestamp"`
	WebhookEventID  string          `json:"webhookEventId,omitempty"`
	ReplyToken      string          `json:"replyToken,omitempty"`
	Source          Source          `json:"source"`
	Message         *Message        `json:"message,omitempty"`
	DeliveryContext DeliveryContext `json:"deliveryContext"`
}

// Source identifies who sent the event.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// Message is an incoming message body.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// DeliveryContext carries platform delivery metadata.
type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// IsTextMessage reports whether the event is a text message with a reply token.
func (e Event) IsTextMessage() bool {
	return e.Type == EventMessage && e.Message != nil && e.Message.Type == MessageTypeText && e.ReplyToken != ""
}

// Text returns the message text, or "" for non-text events.
func (e Event) Text() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.Text
}

// ParseWebhook decodes a raw webhook body. Each event is decoded on its
// own, so a malformed event lands in Invalid instead of failing the batch.
// An error means the envelope itself is unusable; callers treat it as an
// empty batch.
func ParseWebhook(body []byte) (*Webhook, error) {
	var env struct {
		Destination string            `json:"destination"`
		Events      []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	wh := &Webhook{
		Destination: env.Destination,
		Events:      make([]Event, 0, len(env.Events)),
	}
	for i, raw := range env.Events {
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			wh.Invalid = append(wh.Invalid, InvalidEvent{Index: i, Err: err})
			continue
		}
		wh.Events = append(wh.Events, ev)
	}
	return wh, nil
}

// replyRequest is the body of a reply API call.
type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []replyMessage `json:"messages"`
}

type replyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
