// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package websocket

import (
	"fmt"
	"time"

	"github.com/transsync/fleetcore/internal/models"
)

// Notifier is the publish surface business code depends on. *Hub satisfies
// it; tests substitute recording fakes.
type Notifier interface {
	NotifyNewDriver(tenantID string, driver interface{})
	NotifyNewVehicle(tenantID string, vehicle interface{})
	NotifyNewRoute(tenantID string, route interface{})
	NotifyNewTrip(tenantID string, trip interface{})
	NotifyExpirationAlert(doc models.ExpiringDocument)
}

var _ Notifier = (*Hub)(nil)

// NotifyNewDriver announces a newly registered driver to the tenant's room
// and mirrors it as a browser notification to all connected clients.
func (h *Hub) NotifyNewDriver(tenantID string, driver interface{}) {
	n := models.Notification{
		Type:      EventDriverCreated,
		Title:     "New driver registered",
		Message:   "A new driver has been added to the fleet",
		Data:      driver,
		Timestamp: h.now().UTC(),
		Priority:  models.PriorityMedium,
	}
	h.SendToTenant(tenantID, EventDriverCreated, n)
	h.BroadcastAll(EventBrowserNotification, n)
}

// NotifyNewVehicle announces a newly registered vehicle.
func (h *Hub) NotifyNewVehicle(tenantID string, vehicle interface{}) {
	n := models.Notification{
		Type:      EventVehicleCreated,
		Title:     "New vehicle registered",
		Message:   "A new vehicle has been added to the fleet",
		Data:      vehicle,
		Timestamp: h.now().UTC(),
		Priority:  models.PriorityMedium,
	}
	h.SendToTenant(tenantID, EventVehicleCreated, n)
	h.BroadcastAll(EventBrowserNotification, n)
}

// NotifyNewRoute announces a new route to the tenant's room only; routes are
// administrative data and do not warrant a browser notification.
func (h *Hub) NotifyNewRoute(tenantID string, route interface{}) {
	n := models.Notification{
		Type:      EventRouteCreated,
		Title:     "New route created",
		Message:   "A new route has been configured",
		Data:      route,
		Timestamp: h.now().UTC(),
		Priority:  models.PriorityLow,
	}
	h.SendToTenant(tenantID, EventRouteCreated, n)
}

// NotifyNewTrip announces a newly scheduled trip.
func (h *Hub) NotifyNewTrip(tenantID string, trip interface{}) {
	n := models.Notification{
		Type:      EventTripCreated,
		Title:     "New trip scheduled",
		Message:   "A new trip has been scheduled",
		Data:      trip,
		Timestamp: h.now().UTC(),
		Priority:  models.PriorityMedium,
	}
	h.SendToTenant(tenantID, EventTripCreated, n)
	h.BroadcastAll(EventBrowserNotification, n)
}

// NotifyExpirationAlert pushes a high-priority alert for a document expiring
// within the alert window to the document's tenant room, mirrored as a
// browser notification.
func (h *Hub) NotifyExpirationAlert(doc models.ExpiringDocument) {
	n := models.Notification{
		Type:      EventExpirationAlert,
		Title:     fmt.Sprintf("%s expiring soon", doc.DocumentType),
		Message:   expirationMessage(doc),
		Data:      doc,
		Timestamp: h.now().UTC(),
		Priority:  models.PriorityHigh,
	}
	h.SendToTenant(doc.TenantID, EventExpirationAlert, n)
	h.BroadcastAll(EventBrowserNotification, n)
}

func expirationMessage(doc models.ExpiringDocument) string {
	switch {
	case doc.DaysRemaining <= 0:
		return fmt.Sprintf("%s for %s has expired", doc.DocumentType, doc.Holder)
	case doc.DaysRemaining == 1:
		return fmt.Sprintf("%s for %s expires tomorrow", doc.DocumentType, doc.Holder)
	default:
		return fmt.Sprintf("%s for %s expires in %d days (%s)",
			doc.DocumentType, doc.Holder, doc.DaysRemaining,
			doc.ExpiresAt.Format(time.DateOnly))
	}
}
