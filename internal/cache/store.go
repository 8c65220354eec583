// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/metrics"
)

// ComputeFunc produces the value for a cache miss, typically by running the
// backing query through the database executor.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// entry is a cached item. Entries are owned exclusively by the Store and
// mutated only through Set and eviction; an entry leaves the store either by
// TTL expiry or by explicit invalidation.
type entry struct {
	value      interface{}
	insertedAt time.Time
	expiresAt  time.Time
	tags       []string
}

// StoreConfig configures a Store. Zero values select the defaults.
type StoreConfig struct {
	// HotTTL is the default TTL for ad hoc entries. Default: 5m.
	HotTTL time.Duration

	// CommonTTL caps the TTL of precomputed common-tier entries. Default: 30m.
	CommonTTL time.Duration

	// CleanupInterval is the cadence of the background expiry sweep.
	// Default: 1h. Negative disables the sweep (expiry still happens lazily
	// on read).
	CleanupInterval time.Duration

	// Clock overrides the time source. Tests inject a fake clock here.
	Clock func() time.Time
}

// Store is the two-tier tenant-aware query cache.
//
// The hot tier holds ad hoc query results with short TTLs; the common tier
// holds precomputed aggregates that are intentionally preloaded at startup or
// on a cadence. Reads check hot first, then common.
//
// All state lives in in-memory maps guarded by a single RWMutex; operations
// are short and synchronous, and ordering is preserved per key. Nothing is
// persisted: a restart starts cold.
type Store struct {
	mu       sync.RWMutex
	hot      map[string]entry
	common   map[string]entry
	tagIndex map[string]map[string]struct{} // table tag -> keys referencing it

	stats  stats
	flight singleflight.Group

	now             func() time.Time
	hotTTL          time.Duration
	commonTTL       time.Duration
	cleanupInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a Store and starts its background expiry sweep.
// Call Close to stop the sweep goroutine.
func NewStore(cfg StoreConfig) *Store {
	if cfg.HotTTL <= 0 {
		cfg.HotTTL = 5 * time.Minute
	}
	if cfg.CommonTTL <= 0 {
		cfg.CommonTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Store{
		hot:             make(map[string]entry),
		common:          make(map[string]entry),
		tagIndex:        make(map[string]map[string]struct{}),
		now:             cfg.Clock,
		hotTTL:          cfg.HotTTL,
		commonTTL:       cfg.CommonTTL,
		cleanupInterval: cfg.CleanupInterval,
		stop:            make(chan struct{}),
	}
	s.stats.lastCleanup = s.now()

	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// Close stops the background expiry sweep. Safe to call more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Get retrieves a cached value by canonical key, checking the hot tier first
// and then the common tier. Expired entries are removed lazily here and the
// read counts as a miss.
func (s *Store) Get(key string) (interface{}, bool) {
	v, ok := s.lookup(key)
	if ok {
		s.stats.recordHit()
		return v, true
	}
	s.stats.recordMiss()
	return nil, false
}

// lookup is Get without stats accounting, used for rechecks inside the
// single-flight group and by Has.
func (s *Store) lookup(key string) (interface{}, bool) {
	now := s.now()

	s.mu.RLock()
	e, tier, ok := s.find(key)
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if now.After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry since the read lock was released.
		if cur, ok := s.tierMap(tier)[key]; ok && now.After(cur.expiresAt) {
			s.removeLocked(key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// find returns the live entry for key and which tier held it.
// Caller must hold at least the read lock.
func (s *Store) find(key string) (entry, int, bool) {
	if e, ok := s.hot[key]; ok {
		return e, tierHot, true
	}
	if e, ok := s.common[key]; ok {
		return e, tierCommon, true
	}
	return entry{}, tierHot, false
}

const (
	tierHot = iota
	tierCommon
)

func (s *Store) tierMap(tier int) map[string]entry {
	if tier == tierCommon {
		return s.common
	}
	return s.hot
}

// Set stores a value in the hot tier under the given canonical key, tagged
// with the backing tables it was computed from. A non-positive TTL falls
// back to the hot-tier default, so stored entries always have TTL > 0.
func (s *Store) Set(key string, value interface{}, ttl time.Duration, tags ...string) {
	if ttl <= 0 {
		ttl = s.hotTTL
	}
	s.put(tierHot, key, value, ttl, tags)
}

// SetCommon stores a precomputed aggregate in the common tier. TTLs above
// the common-tier cap are clamped to it.
func (s *Store) SetCommon(key string, value interface{}, ttl time.Duration, tags ...string) {
	if ttl <= 0 || ttl > s.commonTTL {
		ttl = s.commonTTL
	}
	s.put(tierCommon, key, value, ttl, tags)
}

func (s *Store) put(tier int, key string, value interface{}, ttl time.Duration, tags []string) {
	now := s.now()

	s.mu.Lock()
	// Drop any existing entry (either tier) so the tag index never holds a
	// key whose tags have changed.
	s.removeLocked(key)

	s.tierMap(tier)[key] = entry{
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
		tags:       tags,
	}
	for _, tag := range tags {
		keys, ok := s.tagIndex[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tagIndex[tag] = keys
		}
		keys[key] = struct{}{}
	}
	s.mu.Unlock()

	s.stats.recordSet()
	s.updateSizeMetrics()
}

// GetOrCompute returns the cached value for the canonicalized (descriptor,
// params, scope) key, computing and storing it on a miss with the TTL of the
// caller-supplied volatility class.
//
// Concurrent misses for the same key are collapsed: the first caller runs
// computeFn and every concurrent caller for that key awaits the same result.
// If computeFn fails the error is returned to the caller and nothing is
// cached, so the cache degrades to pass-through while the backend is down.
func (s *Store) GetOrCompute(ctx context.Context, descriptor string, params []interface{},
	scope Scope, class Class, tags []string, computeFn ComputeFunc) (interface{}, error) {

	key := Canonicalize(descriptor, params, scope)

	if v, ok := s.lookup(key); ok {
		s.stats.recordHit()
		return v, nil
	}
	s.stats.recordMiss()

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		// A concurrent caller may have populated the key while this one
		// waited on the flight group.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}

		v, err := computeFn(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("cache compute failed, passing through")
			return nil, err
		}

		s.Set(key, v, class.TTL(), tags...)
		return v, nil
	})
	return v, err
}

// Refresh force-evicts the key and recomputes it, storing the fresh value
// with the class TTL. Used when a caller knows the cached value is stale
// before its TTL elapses.
func (s *Store) Refresh(ctx context.Context, descriptor string, params []interface{},
	scope Scope, class Class, tags []string, computeFn ComputeFunc) (interface{}, error) {

	key := Canonicalize(descriptor, params, scope)

	s.mu.Lock()
	n := s.removeLocked(key)
	s.mu.Unlock()
	s.stats.recordDeletes(int64(n))
	s.updateSizeMetrics()

	v, err := computeFn(ctx)
	if err != nil {
		return nil, err
	}
	s.Set(key, v, class.TTL(), tags...)
	return v, nil
}

// Has reports whether a live entry exists for the canonicalized inputs,
// without touching the hit/miss counters.
func (s *Store) Has(descriptor string, params []interface{}, scope Scope) bool {
	_, ok := s.lookup(Canonicalize(descriptor, params, scope))
	return ok
}

// RemainingTTL returns how long the entry for the canonicalized inputs stays
// valid, or zero if there is no live entry.
func (s *Store) RemainingTTL(descriptor string, params []interface{}, scope Scope) time.Duration {
	key := Canonicalize(descriptor, params, scope)
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, _, ok := s.find(key); ok && e.expiresAt.After(now) {
		return e.expiresAt.Sub(now)
	}
	return 0
}

// InvalidateTable evicts every cache entry tagged with tableName. When
// tenantID is non-empty, only that tenant's entries are evicted. Returns the
// number of entries removed.
//
// Cost is O(matching keys): the tag index maps each table to the keys that
// reference it, so unrelated entries are never scanned.
func (s *Store) InvalidateTable(tableName, tenantID string) int {
	var prefix string
	if tenantID != "" {
		prefix = TenantPrefix(tenantID)
	}

	s.mu.Lock()
	evicted := 0
	for key := range s.tagIndex[tableName] {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		evicted += s.removeLocked(key)
	}
	s.mu.Unlock()

	s.stats.recordDeletes(int64(evicted))
	s.updateSizeMetrics()

	logging.Debug().
		Str("table", tableName).
		Str("tenant", tenantID).
		Int("evicted", evicted).
		Msg("cache invalidated by table")
	return evicted
}

// InvalidateTenant evicts every entry scoped to the tenant, across both
// tiers. Returns the number of entries removed.
func (s *Store) InvalidateTenant(tenantID string) int {
	prefix := TenantPrefix(tenantID)

	s.mu.Lock()
	evicted := 0
	for _, tier := range []map[string]entry{s.hot, s.common} {
		for key := range tier {
			if strings.HasPrefix(key, prefix) {
				evicted += s.removeLocked(key)
			}
		}
	}
	s.mu.Unlock()

	s.stats.recordDeletes(int64(evicted))
	s.updateSizeMetrics()

	logging.Debug().Str("tenant", tenantID).Int("evicted", evicted).Msg("cache invalidated by tenant")
	return evicted
}

// removeLocked removes the key from whichever tier holds it and drops it
// from the tag index in the same critical section, so a value and its tags
// always disappear together. Caller must hold the write lock.
func (s *Store) removeLocked(key string) int {
	for _, tier := range []map[string]entry{s.hot, s.common} {
		if e, ok := tier[key]; ok {
			for _, tag := range e.tags {
				delete(s.tagIndex[tag], key)
				if len(s.tagIndex[tag]) == 0 {
					delete(s.tagIndex, tag)
				}
			}
			delete(tier, key)
			return 1
		}
	}
	return 0
}

// Cleanup sweeps expired entries from both tiers and stamps the cleanup
// time. Returns the number of entries removed. Expired removals are not
// counted as deletes; only explicit invalidation is.
func (s *Store) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for _, tier := range []map[string]entry{s.hot, s.common} {
		for key, e := range tier {
			if now.After(e.expiresAt) {
				removed += s.removeLocked(key)
			}
		}
	}
	s.mu.Unlock()

	s.stats.recordCleanup(now)
	s.updateSizeMetrics()

	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("cache cleanup completed")
	}
	return removed
}

// Clear removes every entry from both tiers and resets the counters.
func (s *Store) Clear() {
	s.mu.Lock()
	s.hot = make(map[string]entry)
	s.common = make(map[string]entry)
	s.tagIndex = make(map[string]map[string]struct{})
	s.mu.Unlock()

	s.stats.reset(s.now())
	s.updateSizeMetrics()
	logging.Info().Msg("cache cleared")
}

// Keys returns up to limit keys from each tier, sorted, for diagnostics.
func (s *Store) Keys(limit int) (hot, common []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hot = collectKeys(s.hot, limit)
	common = collectKeys(s.common, limit)
	return hot, common
}

func collectKeys(tier map[string]entry, limit int) []string {
	keys := make([]string, 0, len(tier))
	for key := range tier {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// cleanupLoop drives the periodic expiry sweep until Close is called.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) updateSizeMetrics() {
	s.mu.RLock()
	hot, common := len(s.hot), len(s.common)
	s.mu.RUnlock()

	metrics.CacheEntries.WithLabelValues("hot").Set(float64(hot))
	metrics.CacheEntries.WithLabelValues("common").Set(float64(common))
}
