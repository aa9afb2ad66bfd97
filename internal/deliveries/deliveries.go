// Package deliveries keeps a log of reply attempts for operators. The
// log never contains reply tokens or credentials.
package deliveries

import "time"

// Status is the outcome of a reply attempt.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Reason classifies why a delivery failed.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonRejected  Reason = "rejected"  // reply endpoint returned non-2xx
	ReasonTransport Reason = "transport" // network or context error
	ReasonNoToken   Reason = "no_token"  // access token not configured
	ReasonPanic     Reason = "panic"     // handler panicked before replying
)

// Entry is one reply attempt.
type Entry struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	EventID      string        `json:"event_id,omitempty"`
	Kind         string        `json:"kind"`
	Domain       string        `json:"domain,omitempty"`
	Status       Status        `json:"status"`
	Reason       Reason        `json:"reason,omitempty"`
	StatusCode   int           `json:"status_code,omitempty"`
	BackendError string        `json:"backend_error,omitempty"`
	Preview      string        `json:"preview,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}
