package provider

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	apperrors "fxdash/internal/errors"
)

// RetryConfig represents retry configuration
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Factor      float64
	Jitter      float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Factor:      2.0,
		Jitter:      0.1,
	}
}

// StatusError represents a non-2xx response from the data provider
type StatusError struct {
	Code     int
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d for %s", e.Code, e.Endpoint)
}

// IsRetryableError determines if a fetch error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*StatusError); ok {
		switch e.Code {
		case 429, // Too Many Requests
			500, // Internal Server Error
			502, // Bad Gateway
			503, // Service Unavailable
			504: // Gateway Timeout
			return true
		}
		return false
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.IsRetryable()
	}
	return false
}

// WithRetry runs fn with exponential backoff and jitter until it succeeds,
// returns a non-retryable error, or exhausts the retry budget.
func WithRetry(ctx context.Context, fn func(context.Context) error, config *RetryConfig) error {
	_, err := RetryWithResult(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, config)
	return err
}

// RetryWithResult runs fn with exponential backoff and jitter until it
// succeeds, returns a non-retryable error, or exhausts the retry budget.
func RetryWithResult[T any](ctx context.Context, fn func(context.Context) (T, error), config *RetryConfig) (T, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var (
		result T
		err    error
		wait   = config.InitialWait
	)

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}

		if !IsRetryableError(err) {
			return result, err
		}

		if attempt == config.MaxRetries {
			return result, fmt.Errorf("max retries exceeded: %w", err)
		}

		jitter := 1.0 + (config.Jitter * (2*rand.Float64() - 1))
		wait = time.Duration(float64(wait) * config.Factor * jitter)
		if wait > config.MaxWait {
			wait = config.MaxWait
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
	}

	return result, err
}
