// Package retry implements bounded retries with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to maxRetries+1 times, sleeping baseDelay * 2^attempt between
// attempts (attempt 0 waits baseDelay, attempt 1 waits 2*baseDelay, ...).
// The sleep is cancellable: a cancelled context aborts immediately with
// ctx.Err(). The last error is returned when every attempt fails.
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
	}

	return lastErr
}
