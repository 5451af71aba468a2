package util

import (
	"context"
	"time"
)

// Retry runs fn up to maxAttempts times, doubling the delay between
// attempts starting from baseDelay. The last error is returned when every
// attempt fails; cancellation of ctx is honored between attempts, never
// mid-call. Provider adapters wrap their upstream calls in this.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Don't sleep after the last failed attempt.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
