// Package resilience provides the retry and circuit breaker primitives that
// wrap every external service call in the pipeline.
//
// The central type is [Policy], a bounded-attempt exponential backoff retry
// loop. All call sites share the same policy mechanics so retry behaviour is
// tuned in one place rather than scattered per call. [Breaker] protects a
// repeatedly failing provider from being hammered by subsequent calls in the
// same run.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/podforge/podforge/pkg/podcast"
)

// Default retry parameters.
const (
	defaultMaxAttempts = 3
	defaultBackoff     = 1 * time.Second
	defaultMaxBackoff  = 30 * time.Second
)

// Policy describes a bounded retry loop with exponential backoff.
// The zero value is usable: it yields 3 attempts starting at 1s, capped at 30s.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the delay before the second attempt. It doubles after
	// every failure, up to MaxBackoff.
	Backoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// Retryable decides whether an error is worth another attempt. When
	// nil, DefaultRetryable is used.
	Retryable func(error) bool
}

// DefaultRetryable treats everything as transient except context
// cancellation and input validation failures, which no amount of retrying
// will fix.
func DefaultRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ve *podcast.ValidationError
	return !errors.As(err, &ve)
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or a
// non-retryable error occurs. op names the call site for log messages.
//
// Rate-limit errors are respected: when fn fails with a
// *podcast.RateLimitError carrying a RetryAfter hint longer than the computed
// backoff, the hint wins.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var lastErr error
	delay := backoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := delay
			var rl *podcast.RateLimitError
			if errors.As(lastErr, &rl) && rl.RetryAfter > wait {
				wait = rl.RetryAfter
			}
			slog.Debug("retrying after failure",
				"op", op,
				"attempt", attempt,
				"wait", wait,
				"err", lastErr,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}

	slog.Warn("retries exhausted", "op", op, "attempts", maxAttempts, "err", lastErr)
	return lastErr
}
