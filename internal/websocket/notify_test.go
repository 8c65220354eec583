// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package websocket

import (
	"testing"
	"time"

	"github.com/transsync/fleetcore/internal/models"
)

func TestNotifyNewDriver(t *testing.T) {
	hub := startHub(t)

	member := newTestClient(Identity{TenantID: "42", UserID: "alice", Role: "admin"})
	outsider := newTestClient(Identity{TenantID: "99", UserID: "carol", Role: "admin"})
	for _, c := range []*Client{member, outsider} {
		if err := hub.Connect(c); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	hub.NotifyNewDriver("42", map[string]string{"name": "J. Pérez"})
	time.Sleep(50 * time.Millisecond)

	// Tenant event plus the browser mirror.
	if got := len(member.send); got != 2 {
		t.Fatalf("member received %d messages, want 2", got)
	}
	// Only the browser mirror crosses tenants.
	if got := len(outsider.send); got != 1 {
		t.Fatalf("outsider received %d messages, want 1", got)
	}

	msg := <-member.send
	if msg.Event != EventDriverCreated {
		t.Errorf("first event = %q, want %q", msg.Event, EventDriverCreated)
	}
	n, ok := msg.Data.(models.Notification)
	if !ok {
		t.Fatalf("Data is %T, want models.Notification", msg.Data)
	}
	if n.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", n.Priority)
	}
	if n.Type != EventDriverCreated {
		t.Errorf("Type = %q, want %q", n.Type, EventDriverCreated)
	}

	mirror := <-member.send
	if mirror.Event != EventBrowserNotification {
		t.Errorf("second event = %q, want %q", mirror.Event, EventBrowserNotification)
	}
}

func TestNotifyNewRouteStaysInTenant(t *testing.T) {
	hub := startHub(t)

	member := newTestClient(Identity{TenantID: "42", UserID: "alice", Role: "admin"})
	outsider := newTestClient(Identity{TenantID: "99", UserID: "carol", Role: "admin"})
	for _, c := range []*Client{member, outsider} {
		if err := hub.Connect(c); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	hub.NotifyNewRoute("42", map[string]string{"name": "Centro - Terminal"})
	time.Sleep(50 * time.Millisecond)

	if got := len(member.send); got != 1 {
		t.Errorf("member received %d messages, want 1: routes have no browser mirror", got)
	}
	if got := len(outsider.send); got != 0 {
		t.Errorf("outsider received %d messages, want 0", got)
	}

	msg := <-member.send
	n := msg.Data.(models.Notification)
	if n.Priority != models.PriorityLow {
		t.Errorf("Priority = %q, want low", n.Priority)
	}
}

func TestNotifyExpirationAlert(t *testing.T) {
	hub := startHub(t)

	member := newTestClient(Identity{TenantID: "42", UserID: "alice", Role: "admin"})
	if err := hub.Connect(member); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	doc := models.ExpiringDocument{
		DocumentType:  "Driver license",
		Holder:        "J. Pérez",
		ExpiresAt:     time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		DaysRemaining: 5,
		TenantID:      "42",
	}
	hub.NotifyExpirationAlert(doc)
	time.Sleep(50 * time.Millisecond)

	if got := len(member.send); got != 2 {
		t.Fatalf("member received %d messages, want 2", got)
	}

	msg := <-member.send
	if msg.Event != EventExpirationAlert {
		t.Errorf("event = %q, want %q", msg.Event, EventExpirationAlert)
	}
	n := msg.Data.(models.Notification)
	if n.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", n.Priority)
	}
	got, ok := n.Data.(models.ExpiringDocument)
	if !ok {
		t.Fatalf("alert Data is %T, want models.ExpiringDocument", n.Data)
	}
	if got.DaysRemaining != 5 {
		t.Errorf("DaysRemaining = %d, want 5", got.DaysRemaining)
	}
}

func TestExpirationMessage(t *testing.T) {
	base := models.ExpiringDocument{
		DocumentType: "SOAT",
		Holder:       "ABC-123",
		ExpiresAt:    time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		days int
		want string
	}{
		{"expired", 0, "SOAT for ABC-123 has expired"},
		{"tomorrow", 1, "SOAT for ABC-123 expires tomorrow"},
		{"days out", 5, "SOAT for ABC-123 expires in 5 days (2026-09-05)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base
			doc.DaysRemaining = tt.days
			if got := expirationMessage(doc); got != tt.want {
				t.Errorf("expirationMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
