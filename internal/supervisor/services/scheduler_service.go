// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package services

import (
	"context"
	"fmt"

	"github.com/transsync/fleetcore/internal/scheduler"
)

// RegisterFunc wires tasks into a fresh scheduler instance. It runs on
// every (re)start so a supervised restart re-registers the full task set.
type RegisterFunc func(ctx context.Context, s *scheduler.Scheduler) error

// SchedulerService runs a scheduler under supervision. Each Serve call
// builds a new scheduler, registers the tasks, and blocks until the
// context is canceled.
type SchedulerService struct {
	register RegisterFunc
}

// NewSchedulerService wraps the task registration for supervision.
func NewSchedulerService(register RegisterFunc) *SchedulerService {
	return &SchedulerService{register: register}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	sched := scheduler.New()
	defer sched.StopAll()

	if err := s.register(ctx, sched); err != nil {
		return fmt.Errorf("failed to register scheduled tasks: %w", err)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *SchedulerService) String() string { return "scheduler" }
