// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

// Package services wraps FleetCore's long-running components as suture
// services with stable names for supervision logs.
package services

import "context"

// ContextRunner matches components whose run loop takes a context and
// returns when it is canceled. Satisfied by *websocket.Hub.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// HubService supervises the notification hub's run loop.
type HubService struct {
	hub ContextRunner
}

// NewHubService wraps the hub for supervision.
func NewHubService(hub ContextRunner) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service by delegating to the hub's run loop.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string { return "notification-hub" }
