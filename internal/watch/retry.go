package watch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// shouldRetry reports whether a load may succeed later. A file copied into
// the watched directory can still be truncated when it first settles.
func shouldRetry(err error) bool {
	return domain.IsType(err, domain.ErrorTypeLoad)
}

// calculateBackoff calculates exponential backoff duration
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}

// OpenWithRetry calls open until it succeeds, fails with a non-load error,
// or runs out of attempts.
func OpenWithRetry(ctx context.Context, config RetryConfig, logger *observability.Logger, path string, open func(ctx context.Context, path string) error) error {
	if logger == nil {
		logger = observability.Nop()
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = open(ctx, path)
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) {
			return lastErr
		}

		// Don't wait after last attempt
		if attempt == config.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, config)
		logger.Warn().
			Err(lastErr).
			Str("path", path).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Load failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return domain.LoadError(fmt.Sprintf("giving up on %s after %d retries", path, config.MaxRetries), lastErr)
}
