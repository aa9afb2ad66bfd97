package bots

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ziadkadry99/chatbridge/internal/line"
)

// DefaultMaxBodyBytes caps the webhook body when none is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// WebhookConfig configures a WebhookHandler.
type WebhookConfig struct {
	ChannelSecret      string
	InsecureSkipVerify bool
	MaxBodyBytes       int64
}

// WebhookHandler is the HTTP entry point for platform webhook calls.
//
// Only POST is processed; any other method is acknowledged with 200. A
// POST whose signature does not verify gets 401. A body that is not a
// webhook payload is treated as carrying no events. Everything else is
// answered 200 once dispatch returns. The one 500 is for a handler built
// without a channel secret outside insecure mode.
type WebhookHandler struct {
	gateway *Gateway
	cfg     WebhookConfig
	logger  *slog.Logger
}

func NewWebhookHandler(gateway *Gateway, cfg WebhookConfig, logger *slog.Logger) *WebhookHandler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &WebhookHandler{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger.With("component", "webhook"),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeOK(w)
		return
	}

	if h.cfg.ChannelSecret == "" && !h.cfg.InsecureSkipVerify {
		h.logger.Error("channel secret not configured; refusing webhook")
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		// A partial body cannot be authenticated.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("webhook body too large", "limit", tooLarge.Limit)
		} else {
			h.logger.Warn("read webhook body failed", "error", err)
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.cfg.InsecureSkipVerify && !line.VerifySignature(body, r.Header.Get(line.SignatureHeader), h.cfg.ChannelSecret) {
		h.logger.Warn("signature verification failed", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var events []line.Event
	if wh, err := line.ParseWebhook(body); err != nil {
		h.logger.Warn("malformed webhook body", "error", err, "bytes", len(body))
	} else {
		events = wh.Events
		for _, bad := range wh.Invalid {
			h.logger.Warn("malformed webhook event skipped", "index", bad.Index, "error", bad.Err)
		}
	}

	res := h.gateway.Dispatch(r.Context(), events)
	h.logger.Info("webhook handled",
		"events", res.Received,
		"dispatched", res.Dispatched,
		"redelivered", res.Redelivered,
		"duplicates", res.Duplicates,
		"completed", res.Completed,
		"timed_out", res.TimedOut,
	)
	writeOK(w)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
