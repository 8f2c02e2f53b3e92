package embedding

import (
	"context"
	"errors"
	"log"
	"time"
)

// retryWithBackoff retries operation with exponential backoff, doubling
// baseDelay after each failed attempt. It returns the last error when every
// attempt fails, and stops early when the context is cancelled or the
// provider circuit opens (retrying against an open circuit is pointless;
// the breaker's own timeout governs recovery).
func retryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	var lastErr error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrCircuitOpen) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		log.Printf("embedding: attempt %d/%d failed, retrying in %s: %v", attempt, maxAttempts, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
