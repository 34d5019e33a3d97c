package executor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/xmute-dev/xmute/pkg/convert"
)

// RetryPolicy governs how many times, and with what backoff, a step's
// converter call is retried when it fails with a retryable
// convert.ConvertError (spec §4.5 "new" retry supplement). Retries happen
// within a single step's attempt budget; they never cause plan
// re-derivation.
type RetryPolicy struct {
	MaxAttempts int // total attempts including the first; 1 disables retry
}

// NoRetry never retries.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// backoff computes exponential backoff with ±25% jitter, capped at one
// minute, using a larger base delay for throttled errors than for
// conflicts or plain transient failures. Ported near-verbatim from the
// teacher's ParallelScheduler.calculateBackoff.
func backoff(attempt int, err error) time.Duration {
	base := time.Second
	var ce *convert.ConvertError
	if asConvertError(err, &ce) {
		switch ce.Class {
		case convert.ClassThrottled:
			base = 5 * time.Second
		case convert.ClassConflict:
			base = 2 * time.Second
		}
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > time.Minute {
		delay = time.Minute
	}
	jitter := time.Duration(float64(delay) * 0.25 * (2*rand.Float64() - 1))
	return delay + jitter
}

func asConvertError(err error, out **convert.ConvertError) bool {
	ce, ok := err.(*convert.ConvertError)
	if !ok {
		return false
	}
	*out = ce
	return true
}

// withRetry invokes fn, retrying on convert.IsRetryable errors up to
// policy.MaxAttempts times, waiting the computed backoff between attempts
// unless ctx is cancelled first.
func withRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !convert.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}
		select {
		case <-time.After(backoff(attempt, lastErr)):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}
