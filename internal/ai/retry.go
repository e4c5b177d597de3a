package ai

import (
	"context"
	"time"
)

// RetryPolicy retries a call with exponential backoff: BaseDelay after the
// first failure, doubling each attempt. Only the last error is returned.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// overridable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	var lastErr error
	delay := p.BaseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
