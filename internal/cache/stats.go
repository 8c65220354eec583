// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package cache

import (
	"sync"
	"time"

	"github.com/transsync/fleetcore/internal/metrics"
)

// stats tracks cache performance counters. Purely observational: nothing in
// the store consults these values when deciding what to cache or evict.
type stats struct {
	mu          sync.RWMutex
	hits        int64
	misses      int64
	sets        int64
	deletes     int64
	lastCleanup time.Time
}

func (s *stats) recordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	metrics.CacheHits.Inc()
}

func (s *stats) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	metrics.CacheMisses.Inc()
}

func (s *stats) recordSet() {
	s.mu.Lock()
	s.sets++
	s.mu.Unlock()
	metrics.CacheSets.Inc()
}

func (s *stats) recordDeletes(n int64) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.deletes += n
	s.mu.Unlock()
	metrics.CacheDeletes.Add(float64(n))
}

func (s *stats) recordCleanup(at time.Time) {
	s.mu.Lock()
	s.lastCleanup = at
	s.mu.Unlock()
}

func (s *stats) reset(at time.Time) {
	s.mu.Lock()
	s.hits, s.misses, s.sets, s.deletes = 0, 0, 0, 0
	s.lastCleanup = at
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time copy of the cache counters plus derived
// values, safe to read without holding any lock.
type StatsSnapshot struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Sets        int64     `json:"sets"`
	Deletes     int64     `json:"deletes"`
	HitRate     float64   `json:"hitRate"`
	HotKeys     int       `json:"hotKeys"`
	CommonKeys  int       `json:"commonKeys"`
	LastCleanup time.Time `json:"lastCleanup"`
}

// Stats returns a snapshot of the current counters and per-tier key counts.
// HitRate is hits/(hits+misses), and 0 before any request has been served.
func (s *Store) Stats() StatsSnapshot {
	s.mu.RLock()
	hotKeys := len(s.hot)
	commonKeys := len(s.common)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	snap := StatsSnapshot{
		Hits:        s.stats.hits,
		Misses:      s.stats.misses,
		Sets:        s.stats.sets,
		Deletes:     s.stats.deletes,
		HotKeys:     hotKeys,
		CommonKeys:  commonKeys,
		LastCleanup: s.stats.lastCleanup,
	}
	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRate = float64(snap.Hits) / float64(total)
	}
	return snap
}
