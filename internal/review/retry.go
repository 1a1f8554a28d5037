package review

import (
	"context"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/XiaoConstantine/scrutiny/internal/platform"
)

const maxAttempts = 3

var (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// retryWithBackoff runs fn up to maxAttempts times. Only rate-limit
// errors are retried, with an exponential backoff; any other error
// aborts immediately.
func retryWithBackoff(ctx context.Context, op string, fn func() error) error {
	logger := logging.GetLogger()

	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !platform.IsRateLimit(err) || attempt == maxAttempts {
			return err
		}
		logger.Warn(ctx, "Rate limited during %s (attempt %d/%d), retrying in %s",
			op, attempt, maxAttempts, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return err
}
