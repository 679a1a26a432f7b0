package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartRunsImmediatelyAndTicks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func() { runs.Add(1) }); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	deadline := time.After(time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	// One tick may already be in flight when Stop lands.
	time.Sleep(30 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != settled {
		t.Fatal("job kept running after Stop")
	}
}

func TestStartWithoutJobOrInterval(t *testing.T) {
	t.Parallel()

	if err := NewIntervalScheduler(0).Start(context.Background(), func() {}); err != nil {
		t.Fatalf("zero interval: %v", err)
	}
	if err := NewIntervalScheduler(time.Hour).Start(context.Background(), nil); err != nil {
		t.Fatalf("nil job: %v", err)
	}
}
