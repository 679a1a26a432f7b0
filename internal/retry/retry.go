// Package retry implements bounded exponential backoff with jitter for the
// pipeline's unreliable external calls.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Config bounds the retry loop.
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultConfig matches the upstream services' tolerance: three attempts,
// one-second base, doubling, half-width jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.5,
	}
}

// Classifier decides whether an error is worth another attempt.
type Classifier func(error) bool

// Retrier runs operations under one retry policy.
type Retrier struct {
	config      Config
	isRetryable Classifier
	logger      *slog.Logger
}

// New builds a retrier; a nil classifier retries every error.
func New(config Config, classifier Classifier, logger *slog.Logger) *Retrier {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Retrier{config: config, isRetryable: classifier, logger: logger}
}

// Do runs the operation until it succeeds, a non-retryable error occurs, the
// attempt budget is spent, or the context is cancelled. Non-retryable errors
// are returned unwrapped so callers can match them with errors.Is.
func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if r.isRetryable != nil && !r.isRetryable(lastErr) {
			return lastErr
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		r.warn("attempt failed, backing off",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"delay", delay,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if max := float64(r.config.MaxDelay); d > max {
		d = max
	}
	d *= 1 + (rand.Float64()-0.5)*r.config.JitterFactor
	return time.Duration(d)
}

func (r *Retrier) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
