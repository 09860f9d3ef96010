package fetchkit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/restukaro/fetchkit/internal/backoff"
)

// BackoffStrategy selects the delay curve used by BackoffErrorHandler.
type BackoffStrategy int

const (
	// ExponentialJitter is exponential backoff with uniform jitter.
	ExponentialJitter BackoffStrategy = iota
	// DecorrelatedJitter is stateless AWS-style decorrelated jitter.
	DecorrelatedJitter
)

// BackoffConfig configures BackoffErrorHandler. Zero values fall back to:
// 3 retries, 100ms initial, 10s max, multiplier 2.0, jitter 0.1,
// ExponentialJitter strategy and DefaultRetryIf.
type BackoffConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64
	Strategy       BackoffStrategy
	// RetryIf decides whether an HTTPError is worth retrying at all.
	RetryIf func(err *HTTPError) bool
}

// DefaultRetryIf retries rate limiting (429) and every 5xx status.
func DefaultRetryIf(err *HTTPError) bool {
	return err.StatusCode == http.StatusTooManyRequests || err.StatusCode >= 500
}

// BackoffErrorHandler returns an ErrorHandler implementing bounded retry with
// backoff. The Fetcher's own retry loop is unbounded by design; this helper
// is the ready-made policy for callers who want a cap and pacing without
// writing their own handler. A Retry-After response header, when present and
// parseable, takes precedence over the computed delay. The pre-retry sleep
// honors context cancellation.
func BackoffErrorHandler(cfg BackoffConfig) ErrorHandler {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = 0.1
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}
	var strategy backoff.Strategy = backoff.ExponentialJitter{}
	if cfg.Strategy == DecorrelatedJitter {
		strategy = backoff.DecorrelatedJitter{}
	}

	return func(ctx context.Context, err *HTTPError, attempt int, retry func()) error {
		if attempt > cfg.MaxRetries {
			return nil
		}
		if !cfg.RetryIf(err) {
			return nil
		}

		delay := parseRetryAfter(err.Header.Get("Retry-After"))
		if delay == 0 {
			delay = strategy.Delay(attempt-1, cfg.InitialBackoff, cfg.MaxBackoff, cfg.Multiplier, cfg.Jitter)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		retry()
		return nil
	}
}

// parseRetryAfter parses a Retry-After header value in either delay-seconds
// or HTTP-date form, capped at one hour. Returns 0 when absent or invalid.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds > 0 {
			delay := time.Duration(seconds) * time.Second
			if delay > time.Hour {
				delay = time.Hour
			}
			return delay
		}
		return 0
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
