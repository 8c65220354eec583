// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package cache

import "time"

// Class is an explicit data-volatility tag supplied by the caller at the
// call site. The class decides how long a computed result stays cached.
//
// Callers declare the class instead of the cache guessing it from the
// descriptor text: keyword matching silently picked the first match for
// descriptors that touched two domains, so it was removed in favor of an
// explicit tag.
type Class string

const (
	// ClassDriver covers driver reference data; changes infrequently.
	ClassDriver Class = "driver"

	// ClassVehicle covers vehicle reference data; changes infrequently.
	ClassVehicle Class = "vehicle"

	// ClassRoute covers route reference data; rarely changes.
	ClassRoute Class = "route"

	// ClassTrip covers schedule/trip data; operationally dynamic.
	ClassTrip Class = "trip"

	// ClassStatus covers system/live status; must stay near-fresh.
	ClassStatus Class = "status"

	// ClassDocument covers license/document validity; changes on a monthly cadence.
	ClassDocument Class = "document"

	// ClassMaintenance covers maintenance records; changes occasionally.
	ClassMaintenance Class = "maintenance"

	// ClassDefault is the fallback for unclassified queries.
	ClassDefault Class = "default"
)

// classTTLs maps each volatility class to its time-to-live.
var classTTLs = map[Class]time.Duration{
	ClassDriver:      10 * time.Minute,
	ClassVehicle:     10 * time.Minute,
	ClassRoute:       30 * time.Minute,
	ClassTrip:        5 * time.Minute,
	ClassStatus:      2 * time.Minute,
	ClassDocument:    time.Hour,
	ClassMaintenance: 30 * time.Minute,
	ClassDefault:     5 * time.Minute,
}

// TTL returns the time-to-live for the class. Unknown classes fall back to
// the default TTL, so the returned duration is always positive.
func (c Class) TTL() time.Duration {
	if ttl, ok := classTTLs[c]; ok {
		return ttl
	}
	return classTTLs[ClassDefault]
}

// Valid reports whether c is one of the defined volatility classes.
func (c Class) Valid() bool {
	_, ok := classTTLs[c]
	return ok
}
