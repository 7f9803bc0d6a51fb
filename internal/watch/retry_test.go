package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.attempt, cfg), "attempt %d", tt.attempt)
	}
}

func TestOpenWithRetry(t *testing.T) {
	loadErr := domain.LoadError("Failed to open PDF", errors.New("truncated"))

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantType  domain.ErrorType
	}{
		{name: "first try", failures: 0, wantCalls: 1},
		{name: "succeeds after truncated reads", failures: 2, failWith: loadErr, wantCalls: 3},
		{name: "gives up", failures: 10, failWith: loadErr, wantCalls: 4, wantType: domain.ErrorTypeLoad},
		{name: "other errors are not retried", failures: 10, failWith: domain.ValidationError("bad", nil), wantCalls: 1, wantType: domain.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := OpenWithRetry(context.Background(), fastRetry(), nil, "in.pdf", func(context.Context, string) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantType == "" {
				assert.NoError(t, err)
			} else {
				assert.True(t, domain.IsType(err, tt.wantType), "got %v", err)
			}
		})
	}
}

func TestOpenWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := OpenWithRetry(ctx, fastRetry(), nil, "in.pdf", func(context.Context, string) error {
		t.Fatal("open must not run after cancel")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
