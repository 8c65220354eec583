// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

/*
Package cache provides the tenant-aware query-result cache.

This package implements the caching layer that sits between business
operations and the database executor, reducing query load for a multi-tenant
fleet platform.

# Overview

The cache provides:
  - Deterministic canonical keys scoped by tenant and user (keycodec.go)
  - Explicit data-volatility classes mapped to TTLs (volatility.go)
  - A two-tier store: "hot" for ad hoc queries, "common" for precomputed
    aggregates preloaded at startup (store.go, preload.go)
  - A table-tag index for targeted invalidation on writes
  - Single-flight population so concurrent misses for one key share one
    backing computation (golang.org/x/sync/singleflight)
  - Hit/miss/set/delete counters with a derived hit rate (stats.go)

# Tenant Isolation

Every canonical key is prefixed with the tenant and user scope, so two
tenants can never collide on a key or observe each other's cached values.
InvalidateTenant evicts one tenant's entries without touching any other.

# Consistency Contract

Invalidation is targeted, not linearizable: a read immediately after
InvalidateTable never returns the evicted key's stale value, but other keys
tagged with the same table may be served stale until the eviction scan
completes. Bounded staleness is accepted.

# Usage Example

	store := cache.NewStore(cache.StoreConfig{})
	defer store.Close()

	scope := cache.Scope{TenantID: "42", UserID: "7"}
	rows, err := store.GetOrCompute(ctx, "SELECT * FROM drivers WHERE id = ?",
		[]interface{}{9}, scope, cache.ClassDriver, []string{"drivers"},
		func(ctx context.Context) (interface{}, error) {
			return exec.Execute(ctx, query, params)
		})

	// After a mutating write against drivers:
	store.InvalidateTable("drivers", "42")
*/
package cache
