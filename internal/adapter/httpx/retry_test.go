package httpx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetryWithBackoffSucceedsAfterRetryableErrors(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return MapStatusCode("github", 503, "flaky")
		}
		return nil
	}, fastRetryConfig())

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		attempts++
		return MapStatusCode("github", 401, "bad token")
	}, fastRetryConfig())

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		attempts++
		return MapStatusCode("github", 429, "rate limited")
	}, fastRetryConfig())

	assert.Error(t, err)
	// initial attempt + MaxRetries
	assert.Equal(t, 4, attempts)
}

func TestRetryWithBackoffHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		t.Fatal("operation should not run with cancelled context")
		return nil
	}, fastRetryConfig())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestShouldRetryGenericErrorsNotRetryable(t *testing.T) {
	assert.False(t, ShouldRetry(errors.New("plain error")))
	assert.False(t, ShouldRetry(nil))
	assert.True(t, ShouldRetry(NewTimeoutError("github", "timed out")))
}

func TestExponentialBackoffCappedAtMax(t *testing.T) {
	config := RetryConfig{
		MaxRetries:     10,
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		Multiplier:     2.0,
	}

	for attempt := 0; attempt < 10; attempt++ {
		backoff := ExponentialBackoff(attempt, config)
		assert.LessOrEqual(t, backoff, config.MaxBackoff)
		assert.GreaterOrEqual(t, backoff, time.Duration(0))
	}
}
