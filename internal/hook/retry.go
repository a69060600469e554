package hook

import (
	"context"
	"time"
)

// RetryConfig controls the explicit retry decorator.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig derives a retry configuration from the runtime settings:
// RetryAttempts additional attempts beyond the first.
func DefaultRetryConfig(s Settings) RetryConfig {
	return RetryConfig{
		MaxAttempts:  s.RetryAttempts + 1,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// BackoffDelay returns the delay before the given zero-based retry attempt.
func (rc RetryConfig) BackoffDelay(attempt int) time.Duration {
	delay := rc.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.Multiplier)
		if delay > rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	return delay
}

// WithRetry wraps op so transient failures are retried with exponential
// backoff. Retrying is opt-in and must only be applied to idempotent
// operations; the execution core itself never retries, since blind retries
// of non-idempotent writes are unsafe.
func WithRetry(op Operation, rc RetryConfig) Operation {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	return func(ctx context.Context, ev *Event) (map[string]any, error) {
		var lastErr error
		for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
			if attempt > 0 {
				timer := time.NewTimer(rc.BackoffDelay(attempt - 1))
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				}
			}
			data, err := op(ctx, ev)
			if err == nil {
				return data, nil
			}
			lastErr = err
			if !IsTransient(err) {
				break
			}
		}
		return nil, lastErr
	}
}
