// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

// Package models defines the shared data types exchanged between the cache,
// notification, and scheduler layers.
package models

import "time"

// Priority classifies how urgent a notification is for the receiving client.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Notification is the standard envelope pushed to connected clients.
// Notifications are ephemeral: constructed, dispatched, and discarded.
// They are never persisted and never replayed for late joiners.
type Notification struct {
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Priority  Priority    `json:"priority"`
}

// ExpiringDocument is one row from the scheduled expiration scan: a license,
// insurance, or technical-inspection record approaching its expiry date.
// DaysRemaining is zero for documents that are due today or already overdue.
type ExpiringDocument struct {
	DocumentType  string    `json:"documentType"`
	Holder        string    `json:"holder"`
	ExpiresAt     time.Time `json:"expiresAt"`
	DaysRemaining int       `json:"daysRemaining"`
	TenantID      string    `json:"tenantId"`
}
