package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultAPIBase is the production Messaging API host.
	DefaultAPIBase = "https://api.line.me"

	replyPath = "/v2/bot/message/reply"

	// MaxReplyRunes keeps replies under the platform's 5000 character cap.
	MaxReplyRunes = 4900

	// maxLoggedBody bounds how much of an error response ends up in logs.
	maxLoggedBody = 512
)

// ErrNoAccessToken is returned by Send when no channel access token is configured.
var ErrNoAccessToken = errors.New("line: channel access token not configured")

// SendError is returned when the reply endpoint answers with a non-2xx status.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("line: reply HTTP %d: %s", e.StatusCode, e.Body)
}

// ReplyConfig configures a ReplyClient.
type ReplyConfig struct {
	APIBase     string
	AccessToken string
	Timeout     time.Duration
}

// ReplyClient posts text replies to the reply endpoint. It never retries:
// a reply token is single-use, so one call is made per Send.
type ReplyClient struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewReplyClient creates a ReplyClient. A zero Timeout defaults to 10s.
func NewReplyClient(cfg ReplyConfig, logger *slog.Logger) *ReplyClient {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplyClient{
		endpoint:    base + replyPath,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With("component", "line.reply"),
	}
}

// Send delivers text as a single text message for replyToken.
func (c *ReplyClient) Send(ctx context.Context, replyToken, text string) error {
	if c.accessToken == "" {
		return ErrNoAccessToken
	}

	payload, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []replyMessage{{Type: MessageTypeText, Text: Truncate(text, MaxReplyRunes)}},
	})
	if err != nil {
		return fmt.Errorf("line: marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("line: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: reply request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody*4))
	snippet := Truncate(string(body), maxLoggedBody)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("reply rejected", "status", resp.StatusCode, "body", snippet)
		return &SendError{StatusCode: resp.StatusCode, Body: snippet}
	}

	c.logger.Debug("reply sent", "status", resp.StatusCode)
	return nil
}

// Truncate cuts s to at most max runes. Applying it twice yields the same
// result as applying it once.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
