// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

// Package metrics provides Prometheus instrumentation for FleetCore:
// cache efficiency, WebSocket connection counts, notification fanout, and
// scheduler health. Metrics are registered via promauto at package load and
// exposed through promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcore_cache_hits_total",
			Help: "Total number of query cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcore_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	CacheSets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcore_cache_sets_total",
			Help: "Total number of query cache inserts",
		},
	)

	CacheDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcore_cache_deletes_total",
			Help: "Total number of query cache entries evicted by invalidation",
		},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetcore_cache_entries",
			Help: "Current number of cached entries per tier",
		},
		[]string{"tier"}, // "hot", "common"
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetcore_ws_connections",
			Help: "Current number of connected WebSocket clients",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcore_notifications_sent_total",
			Help: "Total number of notifications handed to the transport layer",
		},
		[]string{"event"},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcore_notifications_dropped_total",
			Help: "Total number of notifications dropped because the dispatch queue was full",
		},
	)

	// Scheduler Metrics
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcore_scheduler_runs_total",
			Help: "Total number of scheduled task fires",
		},
		[]string{"task"},
	)

	SchedulerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcore_scheduler_errors_total",
			Help: "Total number of scheduled task fires that returned an error or panicked",
		},
		[]string{"task"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcore_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)
)
