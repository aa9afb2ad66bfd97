package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig bounds retries of idempotent upstream calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig fits inside a webhook dispatch deadline of a few seconds.
var DefaultRetryConfig = RetryConfig{
	MaxRetries: 2,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// doWithRetry calls fn until it returns a non-retryable result, retries
// run out or ctx ends. Retryable responses are 429 and 5xx.
func doWithRetry(ctx context.Context, cfg RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := fn()
		if err == nil {
			if !shouldRetryStatus(resp.StatusCode) || attempt == cfg.MaxRetries {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = errors.New(resp.Status)
			if err := sleepContext(ctx, retryDelay(cfg, attempt, resp)); err != nil {
				return nil, err
			}
			continue
		}

		if !shouldRetryError(err) || attempt == cfg.MaxRetries {
			return nil, err
		}
		lastErr = err
		if err := sleepContext(ctx, retryDelay(cfg, attempt, nil)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func shouldRetryStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func shouldRetryError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func retryDelay(cfg RetryConfig, attempt int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			if d := time.Duration(secs) * time.Second; d < cfg.MaxDelay {
				return d
			}
			return cfg.MaxDelay
		}
	}

	d := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt)))
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	// +/-20% jitter
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
