package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ojtetr/tracker/internal/pkg/logger"
)

// RetryPolicy describes how often a failed connection attempt is repeated.
// MaxAttempts <= 0 keeps retrying until the context is cancelled.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultRetryPolicy retries every five seconds until cancelled
var DefaultRetryPolicy = RetryPolicy{Interval: 5 * time.Second}

// Do runs op until it succeeds, the attempts are used up or ctx is done
func (p RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultRetryPolicy.Interval
	}

	var lastErr error
	for attempt := 1; p.MaxAttempts <= 0 || attempt <= p.MaxAttempts; attempt++ {
		if lastErr = op(ctx); lastErr == nil {
			return nil
		}

		logger.Warn().Err(lastErr).
			Str("target", name).
			Int("attempt", attempt).
			Dur("retry_in", interval).
			Msg("Connection attempt failed")

		if p.MaxAttempts > 0 && attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: giving up: %w", name, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", name, p.MaxAttempts, lastErr)
}
