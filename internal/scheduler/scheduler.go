// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

// Package scheduler runs recurring background tasks.
//
// Two trigger shapes are supported: fixed-interval ticks and a daily run at a
// wall-clock time. Tasks are plain functions; a task that returns an error or
// panics is logged and counted, and its next run stays on schedule. One slow
// or failing task never affects another.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/metrics"
)

// Task is one unit of scheduled work. The context is canceled when the task
// is stopped or the scheduler shuts down.
type Task func(ctx context.Context) error

// Scheduler owns a set of named recurring tasks. Each registered task runs
// in its own goroutine; StopAll cancels them and waits for completion.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]context.CancelFunc
	wg      sync.WaitGroup
	stopped bool

	// now is replaceable for tests.
	now func() time.Time
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		tasks: make(map[string]context.CancelFunc),
		now:   time.Now,
	}
}

// Every registers a task that runs immediately and then on every tick of the
// interval. Registering a name twice, or after StopAll, is an error.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive, got %v", name, interval)
	}
	taskCtx, err := s.register(ctx, name)
	if err != nil {
		return err
	}

	logging.Info().
		Str("task", name).
		Dur("interval", interval).
		Msg("scheduling interval task")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.execute(taskCtx, name, task)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-taskCtx.Done():
				return
			case <-ticker.C:
				s.execute(taskCtx, name, task)
			}
		}
	}()
	return nil
}

// DailyAt registers a task that runs once per day at the given wall-clock
// hour and minute, in the scheduler's local time.
func (s *Scheduler) DailyAt(ctx context.Context, name string, hour, minute int, task Task) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("task %q: invalid time %02d:%02d", name, hour, minute)
	}
	taskCtx, err := s.register(ctx, name)
	if err != nil {
		return err
	}

	logging.Info().
		Str("task", name).
		Str("at", fmt.Sprintf("%02d:%02d", hour, minute)).
		Msg("scheduling daily task")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			delay := nextDailyDelay(s.now(), hour, minute)
			timer := time.NewTimer(delay)
			select {
			case <-taskCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.execute(taskCtx, name, task)
			}
		}
	}()
	return nil
}

// register reserves the task name and returns its cancelable context.
func (s *Scheduler) register(ctx context.Context, name string) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, fmt.Errorf("task %q: scheduler is stopped", name)
	}
	if _, exists := s.tasks[name]; exists {
		return nil, fmt.Errorf("task %q is already registered", name)
	}
	taskCtx, cancel := context.WithCancel(ctx)
	s.tasks[name] = cancel
	return taskCtx, nil
}

// Stop cancels one task by name. Unknown names are a no-op.
func (s *Scheduler) Stop(name string) {
	s.mu.Lock()
	cancel, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	s.mu.Unlock()

	if ok {
		cancel()
		logging.Info().Str("task", name).Msg("scheduled task stopped")
	}
}

// StopAll cancels every task and blocks until all task goroutines have
// returned. The scheduler accepts no new registrations afterwards.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	s.stopped = true
	cancels := make([]context.CancelFunc, 0, len(s.tasks))
	for name, cancel := range s.tasks {
		cancels = append(cancels, cancel)
		delete(s.tasks, name)
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.wg.Wait()
	logging.Info().Msg("scheduler stopped")
}

// TaskNames lists the currently registered task names.
func (s *Scheduler) TaskNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}

// execute runs one task invocation with panic containment.
func (s *Scheduler) execute(ctx context.Context, name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SchedulerErrors.WithLabelValues(name).Inc()
			logging.Error().
				Str("task", name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("scheduled task panicked")
		}
	}()

	start := s.now()
	metrics.SchedulerRuns.WithLabelValues(name).Inc()

	if err := task(ctx); err != nil {
		metrics.SchedulerErrors.WithLabelValues(name).Inc()
		logging.Error().
			Err(err).
			Str("task", name).
			Dur("duration", s.now().Sub(start)).
			Msg("scheduled task failed")
		return
	}

	logging.Debug().
		Str("task", name).
		Dur("duration", s.now().Sub(start)).
		Msg("scheduled task completed")
}

// nextDailyDelay returns how long to wait from now until the next occurrence
// of hour:minute. If today's occurrence has already passed (or is exactly
// now), the next one is tomorrow.
func nextDailyDelay(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
