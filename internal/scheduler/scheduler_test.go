// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/transsync/fleetcore/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func TestNextDailyDelay(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Duration
	}{
		{
			name: "later today",
			now:  time.Date(2026, 3, 1, 8, 0, 0, 0, loc),
			hour: 9, minute: 0,
			want: time.Hour,
		},
		{
			name: "already passed today",
			now:  time.Date(2026, 3, 1, 10, 0, 0, 0, loc),
			hour: 9, minute: 0,
			want: 23 * time.Hour,
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2026, 3, 1, 9, 0, 0, 0, loc),
			hour: 9, minute: 0,
			want: 24 * time.Hour,
		},
		{
			name: "minute granularity",
			now:  time.Date(2026, 3, 1, 8, 45, 30, 0, loc),
			hour: 9, minute: 0,
			want: 14*time.Minute + 30*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDailyDelay(tt.now, tt.hour, tt.minute); got != tt.want {
				t.Errorf("nextDailyDelay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEveryRunsImmediatelyAndOnTicks(t *testing.T) {
	s := New()
	defer s.StopAll()

	var runs atomic.Int32
	err := s.Every(context.Background(), "counter", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	time.Sleep(70 * time.Millisecond)

	// One immediate run plus at least two ticks.
	if got := runs.Load(); got < 3 {
		t.Errorf("task ran %d times, want >= 3", got)
	}
}

func TestEveryErrorDoesNotCancelSchedule(t *testing.T) {
	s := New()
	defer s.StopAll()

	var runs atomic.Int32
	err := s.Every(context.Background(), "failing", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("scan failed")
	})
	if err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	time.Sleep(70 * time.Millisecond)

	if got := runs.Load(); got < 3 {
		t.Errorf("failing task ran %d times, want >= 3: errors must not cancel the schedule", got)
	}
}

func TestEveryPanicIsContained(t *testing.T) {
	s := New()
	defer s.StopAll()

	var runs atomic.Int32
	err := s.Every(context.Background(), "panicking", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	time.Sleep(70 * time.Millisecond)

	if got := runs.Load(); got < 3 {
		t.Errorf("panicking task ran %d times, want >= 3: panics must be contained", got)
	}
}

func TestEveryRejectsDuplicateName(t *testing.T) {
	s := New()
	defer s.StopAll()

	noop := func(ctx context.Context) error { return nil }
	if err := s.Every(context.Background(), "dup", time.Hour, noop); err != nil {
		t.Fatalf("first Every failed: %v", err)
	}
	if err := s.Every(context.Background(), "dup", time.Hour, noop); err == nil {
		t.Error("expected error for duplicate task name")
	}
}

func TestEveryRejectsBadInterval(t *testing.T) {
	s := New()
	defer s.StopAll()

	err := s.Every(context.Background(), "bad", 0, func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestDailyAtRejectsInvalidTime(t *testing.T) {
	s := New()
	defer s.StopAll()

	noop := func(ctx context.Context) error { return nil }
	for _, tc := range []struct{ hour, minute int }{{24, 0}, {-1, 0}, {9, 60}, {9, -1}} {
		if err := s.DailyAt(context.Background(), "bad", tc.hour, tc.minute, noop); err == nil {
			t.Errorf("DailyAt(%d, %d) accepted invalid time", tc.hour, tc.minute)
		}
	}
}

func TestStopCancelsOneTask(t *testing.T) {
	s := New()
	defer s.StopAll()

	var runs atomic.Int32
	err := s.Every(context.Background(), "stoppable", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	s.Stop("stoppable")
	stopped := runs.Load()

	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != stopped {
		t.Errorf("task ran %d more times after Stop", got-stopped)
	}

	if names := s.TaskNames(); len(names) != 0 {
		t.Errorf("TaskNames = %v, want empty", names)
	}
}

func TestStopAllRejectsNewTasks(t *testing.T) {
	s := New()
	s.StopAll()

	err := s.Every(context.Background(), "late", time.Hour, func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected error registering after StopAll")
	}
}
