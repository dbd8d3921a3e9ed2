package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/substrat-dev/ragd/internal/log"
)

// retryEmbed runs fn up to attempts times, doubling the wait between tries
// starting at baseWait. Context cancellation during a wait aborts immediately
// with ctx.Err(); after the last attempt the final error is returned wrapped
// with the attempt count.
func retryEmbed(ctx context.Context, attempts int, baseWait time.Duration, logger log.Logger, fn func(context.Context) ([]float32, error)) ([]float32, error) {
	var lastErr error
	wait := baseWait
	for attempt := 1; attempt <= attempts; attempt++ {
		vec, err := fn(ctx)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		logger.Warn("embedding failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", attempts, lastErr)
}
