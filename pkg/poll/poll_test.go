package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerRunsTaskOnInterval(t *testing.T) {
	var runs atomic.Int64

	p := New()
	p.Add(Task{
		Name:     "counter",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("task ran %d times, expected at least 3", runs.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPollerKeepsGoingAfterFailure(t *testing.T) {
	var runs atomic.Int64

	p := New()
	p.Add(Task{
		Name:     "flaky",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			if runs.Add(1) == 1 {
				return errors.New("transient")
			}
			return nil
		},
	})
	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("task did not run again after a failure")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPollerStopWaitsForTasks(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool

	p := New()
	p.Add(Task{
		Name:     "slow",
		Interval: time.Millisecond,
		Run: func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	})
	p.Start()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}

	p.Stop()
	if !finished.Load() {
		t.Fatal("Stop returned before the in-flight run finished")
	}
}

func TestPollerAddAfterStart(t *testing.T) {
	var runs atomic.Int64

	p := New()
	p.Start()
	defer p.Stop()

	p.Add(Task{
		Name:     "late",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("task added after Start never ran")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPollerZeroIntervalNeverRuns(t *testing.T) {
	var runs atomic.Int64

	p := New()
	p.Add(Task{
		Name:     "disabled",
		Interval: 0,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	if runs.Load() != 0 {
		t.Fatalf("zero-interval task ran %d times", runs.Load())
	}
}
