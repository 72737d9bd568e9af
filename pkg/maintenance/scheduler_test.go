package maintenance

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_Add(t *testing.T) {
	tests := []struct {
		name      string
		schedule  string
		wantJob   bool
		wantError bool
	}{
		{name: "descriptor", schedule: "@every 1m", wantJob: true},
		{name: "standard", schedule: "*/5 * * * *", wantJob: true},
		{name: "empty disables", schedule: "", wantJob: false},
		{name: "invalid", schedule: "whenever", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(nil)
			err := s.Add(JobCachePurge, tt.schedule, func(context.Context) (int, error) { return 0, nil })

			if (err != nil) != tt.wantError {
				t.Fatalf("Add() error = %v, wantError %v", err, tt.wantError)
			}
			if got := len(s.Jobs()) == 1; got != tt.wantJob {
				t.Errorf("job registered = %v, want %v", got, tt.wantJob)
			}
		})
	}
}

func TestScheduler_DuplicateName(t *testing.T) {
	s := NewScheduler(nil)
	noop := func(context.Context) (int, error) { return 0, nil }

	if err := s.Add(JobRateLimitSweep, "@every 1m", noop); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(JobRateLimitSweep, "@every 2m", noop); err == nil {
		t.Error("expected error for duplicate job name")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(nil)
	noop := func(context.Context) (int, error) { return 0, nil }
	s.Add(JobRateLimitSweep, "@every 1m", noop)
	s.Add(JobCachePurge, "@every 5m", noop)

	if s.NextRun(JobCachePurge) != nil {
		t.Error("NextRun() should be nil before Start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	if !s.IsRunning() {
		t.Fatal("scheduler should be running")
	}
	next := s.NextRun(JobCachePurge)
	if next == nil {
		t.Fatal("NextRun() returned nil for running job")
	}
	if d := time.Until(*next); d <= 0 || d > 5*time.Minute+time.Second {
		t.Errorf("NextRun() = %v from now, want within 5m", d)
	}
	if s.NextRun("unknown") != nil {
		t.Error("NextRun() should be nil for unknown job")
	}
	if got, want := s.Jobs(), []string{JobCachePurge, JobRateLimitSweep}; !reflect.DeepEqual(got, want) {
		t.Errorf("Jobs() = %v, want %v", got, want)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
	s.Stop()
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(nil)
	s.Add(JobCachePurge, "@every 1m", func(context.Context) (int, error) { return 0, nil })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler should stop after context cancellation")
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int32
	s.Add(JobRateLimitSweep, "@every 1s", func(context.Context) (int, error) {
		runs.Add(1)
		return 3, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Error("job never ran")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(nil)
	var gotCtx context.Context
	s.Add(JobCachePurge, "@every 1h", func(ctx context.Context) (int, error) {
		gotCtx = ctx
		return 0, errors.New("purge failed")
	})

	if err := s.RunNow(JobCachePurge); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if gotCtx == nil {
		t.Error("job should receive a context even before Start")
	}
	if err := s.RunNow("missing"); err == nil {
		t.Error("RunNow() should fail for unknown job")
	}
}
