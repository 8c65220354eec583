// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package cache

import (
	"context"

	"github.com/transsync/fleetcore/internal/logging"
)

// Executor runs a query descriptor against the backing store. It is the
// collaborator contract consumed by compute closures and the preloader;
// internal/database provides the SQL implementation.
type Executor interface {
	Execute(ctx context.Context, descriptor string, params []interface{}) ([]map[string]interface{}, error)
}

// CommonQuery is one precomputed aggregate seeded into the common tier.
type CommonQuery struct {
	Name       string
	Descriptor string
	Params     []interface{}
	Class      Class
	Tags       []string
}

// DefaultCommonQueries returns the dashboard aggregates preloaded for a
// tenant at startup: counts the fleet UI asks for on every page load.
func DefaultCommonQueries(tenantID string) []CommonQuery {
	return []CommonQuery{
		{
			Name:       "active_drivers_count",
			Descriptor: "SELECT COUNT(*) AS total FROM drivers WHERE tenant_id = ? AND status = ?",
			Params:     []interface{}{tenantID, "ACTIVE"},
			Class:      ClassStatus,
			Tags:       []string{"drivers"},
		},
		{
			Name:       "available_vehicles_count",
			Descriptor: "SELECT COUNT(*) AS total FROM vehicles WHERE tenant_id = ? AND status = ?",
			Params:     []interface{}{tenantID, "AVAILABLE"},
			Class:      ClassStatus,
			Tags:       []string{"vehicles"},
		},
		{
			Name: "ongoing_trips_count",
			Descriptor: "SELECT COUNT(*) AS total FROM trips t " +
				"JOIN vehicles v ON t.vehicle_id = v.id WHERE v.tenant_id = ? AND t.status = ?",
			Params: []interface{}{tenantID, "IN_PROGRESS"},
			Class:  ClassStatus,
			Tags:   []string{"trips", "vehicles"},
		},
	}
}

// PreloadCommonQueries computes the tenant's common aggregates through the
// executor and seeds them into the common tier. A failing query is logged
// and skipped; preloading is best-effort and never fails startup.
func (s *Store) PreloadCommonQueries(ctx context.Context, exec Executor, tenantID string) {
	scope := Scope{TenantID: tenantID}

	for _, q := range DefaultCommonQueries(tenantID) {
		rows, err := exec.Execute(ctx, q.Descriptor, q.Params)
		if err != nil {
			logging.Warn().Err(err).
				Str("query", q.Name).
				Str("tenant", tenantID).
				Msg("failed to preload common query")
			continue
		}

		key := Canonicalize(q.Descriptor, q.Params, scope)
		s.SetCommon(key, rows, q.Class.TTL(), q.Tags...)
		logging.Debug().Str("query", q.Name).Str("tenant", tenantID).Msg("preloaded common query")
	}
}
