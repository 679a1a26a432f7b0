package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:   attempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1,
		JitterFactor:  0,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := New(fastConfig(3), nil, nil).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustionWrapsLastError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("still broken")
	calls := 0
	err := New(fastConfig(2), nil, nil).Do(context.Background(), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("wrapped error lost: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoNonRetryableReturnsImmediately(t *testing.T) {
	t.Parallel()

	fatal := errors.New("quota")
	classifier := func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	err := New(fastConfig(5), classifier, nil).Do(context.Background(), func() error {
		calls++
		return fatal
	})
	if err != fatal {
		t.Fatalf("non-retryable error must come back unwrapped, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error retried: %d calls", calls)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(fastConfig(3), nil, nil).Do(ctx, func() error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
